package messaging

import (
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/agent"
)

// Default sizing. DefaultPoolSize leaves headroom above the agent's default
// pending-ack capacity so a full ack table cannot starve the queue.
const (
	DefaultQueueDepth = 25
	DefaultPoolSize   = 25
)

// Bus is a channel-backed queue and pool implementing agent.Messenger.
//
// Thread Safety:
//   - Send, Acquire, Release, and Wake are safe from any goroutine.
//   - Receive is intended for the single command-loop goroutine.
type Bus struct {
	queue chan *agent.Command
	pool  chan *agent.Command
}

// New creates a Bus with the given queue depth and pool size; zero or
// negative values select the defaults. All pool records are preallocated.
func New(queueDepth, poolSize int) *Bus {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}

	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}

	b := &Bus{
		queue: make(chan *agent.Command, queueDepth),
		pool:  make(chan *agent.Command, poolSize),
	}

	for i := 0; i < poolSize; i++ {
		b.pool <- &agent.Command{}
	}

	return b
}

// Send enqueues one command reference, blocking up to wait when the queue
// is full. Returns false on timeout; the caller still owns the command.
func (b *Bus) Send(cmd *agent.Command, wait time.Duration) bool {
	if wait <= 0 {
		select {
		case b.queue <- cmd:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case b.queue <- cmd:
		return true
	case <-timer.C:
		return false
	}
}

// Receive dequeues one command, blocking up to wait when the queue is
// empty. A (nil, true) return is a wake-up delivered via Wake.
func (b *Bus) Receive(wait time.Duration) (*agent.Command, bool) {
	if wait <= 0 {
		select {
		case cmd := <-b.queue:
			return cmd, true
		default:
			return nil, false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case cmd := <-b.queue:
		return cmd, true
	case <-timer.C:
		return nil, false
	}
}

// Acquire hands out a free command record, blocking up to wait when the
// pool is empty. Returns nil when none became free in time.
func (b *Bus) Acquire(wait time.Duration) *agent.Command {
	if wait <= 0 {
		select {
		case cmd := <-b.pool:
			return cmd
		default:
			return nil
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case cmd := <-b.pool:
		return cmd
	case <-timer.C:
		return nil
	}
}

// Release zeroes a record and returns it to the pool. Returns false for a
// nil record or a double release (the pool is already full).
func (b *Bus) Release(cmd *agent.Command) bool {
	if cmd == nil {
		return false
	}

	cmd.Type = agent.CommandNone
	cmd.Args = nil
	cmd.Complete = nil

	select {
	case b.pool <- cmd:
		return true
	default:
		return false
	}
}

// Wake unblocks a pending Receive without delivering a command, so the
// agent loop can run its process loop promptly, for example when the
// transport reports readable data. Dropped silently when the queue is full,
// which is harmless: a full queue wakes the loop by itself.
func (b *Bus) Wake() {
	select {
	case b.queue <- nil:
	default:
	}
}
