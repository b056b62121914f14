package agent

import (
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
)

// CommandType identifies the operation a queued command performs.
//
// The zero value CommandNone stands for "no command": it is what the loop
// dispatches when the queue receive times out or a wake-up is delivered, and
// its handler simply drives the protocol process loop.
type CommandType uint8

const (
	CommandNone CommandType = iota
	CommandProcessLoop
	CommandPublish
	CommandSubscribe
	CommandUnsubscribe
	CommandPing
	CommandConnect
	CommandDisconnect
	CommandTerminate

	commandTypeCount
)

// String returns the command type name for logging.
func (t CommandType) String() string {
	switch t {
	case CommandNone:
		return "none"
	case CommandProcessLoop:
		return "process_loop"
	case CommandPublish:
		return "publish"
	case CommandSubscribe:
		return "subscribe"
	case CommandUnsubscribe:
		return "unsubscribe"
	case CommandPing:
		return "ping"
	case CommandConnect:
		return "connect"
	case CommandDisconnect:
		return "disconnect"
	case CommandTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// CommandResult is delivered to a command's completion callback when the
// command reaches a terminal outcome.
//
// Err is nil on success. SubackCodes is set only when the command was a
// subscribe and its SUBACK arrived; it holds one reason code per requested
// topic filter and aliases the inbound packet buffer, so callers needing it
// past the callback must copy it.
type CommandResult struct {
	Err         error
	SubackCodes []byte
}

// CompletionFunc is invoked exactly once per accepted command, on the
// command loop goroutine. It must not block; if it enqueues further
// commands it must use a zero wait.
type CompletionFunc func(result CommandResult)

// Command is one queued work item: an operation, its borrowed arguments,
// and an optional completion callback.
//
// Command records are acquired from and released to the Messenger pool; the
// agent owns a record from the moment Send accepts it until it is released.
type Command struct {
	Type     CommandType
	Args     any
	Complete CompletionFunc
}

// reset clears a command for reuse.
func (c *Command) reset() {
	c.Type = CommandNone
	c.Args = nil
	c.Complete = nil
}

// complete invokes the completion callback, if any.
func (c *Command) complete(result CommandResult) {
	if c.Complete != nil {
		c.Complete(result)
	}
}

// CommandOptions carries the per-call parameters common to every public
// entry point: the completion callback and the maximum time to wait for
// space in the command pool and queue.
//
// A zero Wait never blocks. Callbacks enqueueing follow-up commands must
// pass a zero Wait to avoid deadlocking the command loop against itself.
type CommandOptions struct {
	Complete CompletionFunc
	Wait     time.Duration
}

// SubscribeArgs carries the topic filters for a subscribe or unsubscribe
// command. The slice is borrowed from the caller until completion.
type SubscribeArgs struct {
	Subscriptions []mqttclient.Subscription
}

// ConnectArgs carries the parameters for a connect command. SessionPresent
// is an out-parameter: the connect handler stores the broker's CONNACK
// session-present flag there before the completion callback runs.
type ConnectArgs struct {
	Info    *mqttclient.ConnectInfo
	Will    *mqttclient.PublishInfo
	Timeout time.Duration

	SessionPresent bool
}

// IncomingPublishFunc receives every inbound PUBLISH on the command loop
// goroutine. The agent keeps no topic registry; fan-out by topic is the
// application's concern. The PublishInfo aliases the inbound packet buffer.
type IncomingPublishFunc func(packetID uint16, publish *mqttclient.PublishInfo)

// Messenger is the queue and pool the agent runs on. Send, Acquire, and
// Release must be safe for concurrent use from any goroutine; Receive is
// called only by the command loop.
//
// Receive may return (nil, true) as a pure wake-up: the loop treats it as
// "no command" and drives the protocol process loop until no further
// inbound packet arrives.
type Messenger interface {
	// Send enqueues one command, blocking up to wait when the queue is full.
	Send(cmd *Command, wait time.Duration) bool

	// Receive dequeues one command, blocking up to wait when the queue is
	// empty. Returns false on timeout.
	Receive(wait time.Duration) (*Command, bool)

	// Acquire hands out a free command record, blocking up to wait when the
	// pool is empty. Returns nil on timeout.
	Acquire(wait time.Duration) *Command

	// Release returns a previously acquired record to the pool.
	Release(cmd *Command) bool
}

// Logger is the minimal logging interface the agent uses. It is satisfied
// by logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// returnFlags is what a command function hands back to the loop: the packet
// identifier it sent (if any) and what the loop should do next. Handlers
// never touch the pending-ack table themselves; addAck plus packetID drive
// that from the loop.
type returnFlags struct {
	packetID       uint16
	addAck         bool
	runProcessLoop bool
	endLoop        bool
}

// commandFunc is the signature of one dispatch-table entry.
type commandFunc func(a *Agent, args any) (returnFlags, error)

// pendingAck is one slot of the pending-acknowledgment table. A zero
// packetID marks a free slot; an occupied slot always references the
// originating command.
type pendingAck struct {
	packetID uint16
	command  *Command
}
