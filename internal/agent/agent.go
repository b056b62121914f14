package agent

import (
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
)

// Sizing defaults. Both can be overridden through Options.
const (
	// DefaultMaxOutstandingAcks is the default capacity of the pending-ack
	// table: the number of QoS>0 publishes, subscribes, and unsubscribes
	// that may be in flight at once.
	DefaultMaxOutstandingAcks = 20

	// DefaultQueueWait is the default time the command loop blocks waiting
	// for the next command before driving the protocol process loop anyway.
	DefaultQueueWait = time.Second
)

// Agent owns one MQTT connection and the single goroutine allowed to use
// it. Public API methods are safe for concurrent use from any goroutine;
// everything else runs on the command loop.
type Agent struct {
	client    mqttclient.Client
	messenger Messenger
	logger    Logger

	onIncomingPublish IncomingPublishFunc

	// Command-loop-private state. No locking: only the loop goroutine
	// touches these after New returns.
	pendingAcks          []pendingAck
	packetReceivedInLoop bool

	queueWait time.Duration
}

// Options configures a new Agent.
type Options struct {
	// Client is the single-threaded protocol implementation the agent
	// serialises access to. Required.
	Client mqttclient.Client

	// Messenger provides the command queue and pool. Required.
	Messenger Messenger

	// OnIncomingPublish receives every inbound PUBLISH. Required: the agent
	// keeps no subscription registry of its own, so an unrouted PUBLISH
	// would otherwise vanish.
	OnIncomingPublish IncomingPublishFunc

	// MaxOutstandingAcks overrides DefaultMaxOutstandingAcks when positive.
	MaxOutstandingAcks int

	// QueueWait overrides DefaultQueueWait when positive.
	QueueWait time.Duration

	// Logger receives agent diagnostics. Optional.
	Logger Logger
}

// New validates the options, wires the agent, and registers its event
// callback with the protocol client. The command loop is not started;
// run CommandLoop on a dedicated goroutine.
func New(opts Options) (*Agent, error) {
	if opts.Client == nil || opts.Messenger == nil || opts.OnIncomingPublish == nil {
		return nil, ErrBadParameter
	}

	maxAcks := opts.MaxOutstandingAcks
	if maxAcks <= 0 {
		maxAcks = DefaultMaxOutstandingAcks
	}

	queueWait := opts.QueueWait
	if queueWait <= 0 {
		queueWait = DefaultQueueWait
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	a := &Agent{
		client:            opts.Client,
		messenger:         opts.Messenger,
		logger:            logger,
		onIncomingPublish: opts.OnIncomingPublish,
		pendingAcks:       make([]pendingAck, maxAcks),
		queueWait:         queueWait,
	}

	a.client.SetEventCallback(a.handleEvent)

	return a, nil
}

// CommandLoop runs the agent: receive a command, dispatch it, track its
// acknowledgment, drain the transport, repeat. It returns nil after a
// Disconnect or Terminate command and the first non-nil error otherwise,
// leaving reconnection policy to the caller.
//
// Exactly one goroutine may run CommandLoop at a time.
func (a *Agent) CommandLoop() error {
	if a == nil || a.client == nil || a.messenger == nil {
		return ErrBadParameter
	}

	for {
		// A timeout here is not an error: the NONE handler runs the process
		// loop so inbound traffic is still served between commands.
		cmd, _ := a.messenger.Receive(a.queueWait)

		endLoop, err := a.processCommand(cmd)
		if err != nil {
			a.logger.Error("command failed", "error", err)
			return err
		}

		if endLoop {
			return nil
		}
	}
}

// processCommand dispatches one command (nil meaning "no command"), parks
// it in the pending-ack table when the handler sent an acknowledged packet,
// completes and releases it otherwise, and drains the transport until no
// more inbound packets are readable.
func (a *Agent) processCommand(cmd *Command) (endLoop bool, err error) {
	handler := commandTable[CommandNone]

	var args any

	if cmd != nil {
		handler = commandTable[cmd.Type]
		args = cmd.Args
	}

	flags, opErr := handler(a, args)

	ackAdded := false

	if opErr == nil && flags.addAck {
		ackAdded = a.addAwaitingAck(flags.packetID, cmd)
		if !ackAdded {
			a.logger.Error("no slot to await acknowledgment", "packet_id", flags.packetID)
			opErr = ErrNoMemory
		}
	}

	if cmd != nil && !ackAdded {
		// The command is complete; hand it back.
		cmd.complete(CommandResult{Err: opErr})
		a.messenger.Release(cmd)
	}

	if opErr == nil && flags.runProcessLoop {
		opErr = a.drainProcessLoop()
	}

	return flags.endLoop || opErr != nil, opErr
}

// drainProcessLoop runs the protocol process loop until an iteration
// completes without the event callback firing, so that every packet already
// readable is handled before the loop blocks on the queue again.
func (a *Agent) drainProcessLoop() error {
	var err error

	for {
		a.packetReceivedInLoop = false

		if err == nil && a.client.Connected() {
			err = a.client.ProcessLoop()
		}

		if !a.packetReceivedInLoop {
			return err
		}
	}
}

// handleEvent is the inbound dispatcher: the protocol client invokes it from
// ProcessLoop for every packet it reads, which places it on the command loop
// goroutine. PUBLISHes go to the application callback; acknowledgments close
// their pending operation; protocol-internal packets are ignored.
func (a *Agent) handleEvent(packet *mqttclient.PacketInfo, info *mqttclient.DeserializedInfo) {
	// Tell the loop driver the callback fired so it drains again: more data
	// may already be buffered behind this packet.
	a.packetReceivedInLoop = true

	// The lower nibble of a PUBLISH carries the dup, QoS, and retain flags,
	// so match on the upper nibble only.
	if packet.Type&0xF0 == mqttclient.PacketTypePublish {
		a.onIncomingPublish(info.PacketID, info.Publish)
		return
	}

	switch packet.Type {
	case mqttclient.PacketTypePuback,
		mqttclient.PacketTypePubcomp,
		mqttclient.PacketTypeSuback,
		mqttclient.PacketTypeUnsuback:
		if slot := a.findAwaitingAck(info.PacketID); slot != nil {
			a.closePendingAck(slot, packet, info)
		}

	// Protocol-internal QoS 2 steps; the protocol layer answers these
	// itself and they complete no command.
	case mqttclient.PacketTypePubrec, mqttclient.PacketTypePubrel:

	default:
		a.logger.Error("unexpected packet type received", "type", packet.Type)
	}
}

// closePendingAck finishes the command parked in slot: it surfaces the
// deserialization result (and, for a SUBACK, the per-filter reason codes
// that begin two bytes after the start of the remaining data) through the
// completion callback, releases the command, and frees the slot.
func (a *Agent) closePendingAck(slot *pendingAck, packet *mqttclient.PacketInfo, info *mqttclient.DeserializedInfo) {
	result := CommandResult{Err: info.Err}

	if packet.Type == mqttclient.PacketTypeSuback && len(packet.RemainingData) > 2 {
		result.SubackCodes = packet.RemainingData[2:]
	}

	cmd := slot.command
	cmd.complete(result)
	a.messenger.Release(cmd)
	a.clearSlot(slot)
}
