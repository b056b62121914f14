package agent

import "github.com/nerrad567/gray-logic-agent/internal/mqttclient"

// Producer API surface. Every entry point follows the same outline:
// validate, acquire a command record, populate it, enqueue it, and release
// it again if the enqueue fails. All methods are safe for concurrent use
// and return synchronously; the operation's outcome arrives through the
// completion callback in CommandOptions.

// publishHeaderBytes is the minimum framing overhead preceding a PUBLISH
// topic name: the control byte, one remaining-length byte, and the two-byte
// topic length prefix.
const publishHeaderBytes = 4

// Publish enqueues a PUBLISH of info. For QoS 1 and 2 the completion fires
// when the broker acknowledges; for QoS 0 it fires as soon as the packet is
// handed to the transport. The caller owns info and its payload until then.
func (a *Agent) Publish(info *mqttclient.PublishInfo, opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	if info == nil {
		return ErrBadParameter
	}

	// The topic must fit in the network buffer with room left for payload
	// framing.
	if publishHeaderBytes+len(info.Topic) >= a.client.NetworkBufferSize() {
		return ErrBadParameter
	}

	// Best effort only: the authoritative slot reservation happens on the
	// command loop when the publish is dispatched.
	if info.QoS != 0 && !a.spaceInAckList() {
		return ErrNoMemory
	}

	return a.enqueueCommand(CommandPublish, info, opts)
}

// Subscribe enqueues a SUBSCRIBE for args.Subscriptions. The completion
// receives the SUBACK reason codes, one per filter, in CommandResult.
func (a *Agent) Subscribe(args *SubscribeArgs, opts CommandOptions) error {
	return a.enqueueSubscription(CommandSubscribe, args, opts)
}

// Unsubscribe enqueues an UNSUBSCRIBE for args.Subscriptions.
func (a *Agent) Unsubscribe(args *SubscribeArgs, opts CommandOptions) error {
	return a.enqueueSubscription(CommandUnsubscribe, args, opts)
}

// Connect enqueues a CONNECT. The connect handler blocks the command loop
// until the CONNACK arrives or args.Timeout expires, stores the broker's
// session-present flag in args, and resumes or clears in-flight state
// accordingly before the completion fires.
func (a *Agent) Connect(args *ConnectArgs, opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	if args == nil || args.Info == nil {
		return ErrBadParameter
	}

	return a.enqueueCommand(CommandConnect, args, opts)
}

// Disconnect enqueues a DISCONNECT. The command loop exits cleanly after
// dispatching it; pending acknowledgments stay parked for a later
// reconnect with session resumption.
func (a *Agent) Disconnect(opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	return a.enqueueCommand(CommandDisconnect, nil, opts)
}

// Ping enqueues a PINGREQ keep-alive probe.
func (a *Agent) Ping(opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	return a.enqueueCommand(CommandPing, nil, opts)
}

// ProcessLoop enqueues an explicit drive of the protocol process loop. The
// loop also runs after most commands and on queue timeouts, so this is only
// needed to force prompt handling of inbound traffic.
func (a *Agent) ProcessLoop(opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	return a.enqueueCommand(CommandProcessLoop, nil, opts)
}

// Terminate enqueues the global cancellation command: every command still
// queued and every pending acknowledgment completes with ErrBadResponse,
// then the command loop exits. There is no per-command cancellation.
func (a *Agent) Terminate(opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	return a.enqueueCommand(CommandTerminate, nil, opts)
}

// validateEntry applies the checks shared by every entry point: the agent
// must be fully wired and the protocol client initialised (an uninitialised
// client cannot allocate packet identifiers yet).
func (a *Agent) validateEntry() error {
	if a == nil || a.client == nil || a.messenger == nil {
		return ErrBadParameter
	}

	if !a.client.Initialized() {
		return ErrBadParameter
	}

	return nil
}

// enqueueSubscription validates and enqueues a subscribe or unsubscribe.
func (a *Agent) enqueueSubscription(cmdType CommandType, args *SubscribeArgs, opts CommandOptions) error {
	if err := a.validateEntry(); err != nil {
		return err
	}

	if args == nil || len(args.Subscriptions) == 0 {
		return ErrBadParameter
	}

	// Best-effort pre-check, re-checked authoritatively on the loop.
	if !a.spaceInAckList() {
		return ErrNoMemory
	}

	return a.enqueueCommand(cmdType, args, opts)
}

// enqueueCommand acquires a record from the pool, populates it, and hands
// it to the queue. On a failed send the record is released before
// returning, so a rejected call leaves no trace.
func (a *Agent) enqueueCommand(cmdType CommandType, args any, opts CommandOptions) error {
	cmd := a.messenger.Acquire(opts.Wait)
	if cmd == nil {
		return ErrNoMemory
	}

	cmd.Type = cmdType
	cmd.Args = args
	cmd.Complete = opts.Complete

	if !a.messenger.Send(cmd, opts.Wait) {
		cmd.reset()
		a.messenger.Release(cmd)

		return ErrSendFailed
	}

	return nil
}
