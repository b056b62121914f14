package agent

import "github.com/nerrad567/gray-logic-agent/internal/mqttclient"

// Command functions: one per command type, invoked by the command loop
// through the dispatch table. Each one reads the agent state, performs the
// protocol operation, and reports what the loop should do next through
// returnFlags. Handlers never modify the pending-ack table; the loop does
// that when addAck is set.

// commandTable is indexed by CommandType. CommandNone shares the
// process-loop handler so queue timeouts and wake-ups still drain the
// transport.
var commandTable = [commandTypeCount]commandFunc{
	CommandNone:        commandProcessLoop,
	CommandProcessLoop: commandProcessLoop,
	CommandPublish:     commandPublish,
	CommandSubscribe:   commandSubscribe,
	CommandUnsubscribe: commandUnsubscribe,
	CommandPing:        commandPing,
	CommandConnect:     commandConnect,
	CommandDisconnect:  commandDisconnect,
	CommandTerminate:   commandTerminate,
}

func commandProcessLoop(_ *Agent, _ any) (returnFlags, error) {
	return returnFlags{runProcessLoop: true}, nil
}

func commandPublish(a *Agent, args any) (returnFlags, error) {
	publish := args.(*mqttclient.PublishInfo)
	flags := returnFlags{runProcessLoop: true}

	// QoS 0 publishes are fire-and-forget: no packet identifier, no
	// acknowledgment slot.
	if publish.QoS != 0 {
		flags.packetID = a.client.NextPacketID()
	}

	a.logger.Debug("publishing message", "topic", publish.Topic, "qos", publish.QoS)
	err := a.client.Publish(publish, flags.packetID)

	flags.addAck = publish.QoS != 0 && err == nil

	return flags, err
}

func commandSubscribe(a *Agent, args any) (returnFlags, error) {
	subscribe := args.(*SubscribeArgs)
	flags := returnFlags{runProcessLoop: true}

	flags.packetID = a.client.NextPacketID()
	err := a.client.Subscribe(subscribe.Subscriptions, flags.packetID)
	flags.addAck = err == nil

	return flags, err
}

func commandUnsubscribe(a *Agent, args any) (returnFlags, error) {
	unsubscribe := args.(*SubscribeArgs)
	flags := returnFlags{runProcessLoop: true}

	flags.packetID = a.client.NextPacketID()
	err := a.client.Unsubscribe(unsubscribe.Subscriptions, flags.packetID)
	flags.addAck = err == nil

	return flags, err
}

func commandConnect(a *Agent, args any) (returnFlags, error) {
	connect := args.(*ConnectArgs)

	// Connect blocks until the CONNACK arrives, so no process-loop run is
	// needed afterwards and there is nothing to park in the ack table.
	sessionPresent, err := a.client.Connect(connect.Info, connect.Will, connect.Timeout)
	connect.SessionPresent = sessionPresent

	if err == nil {
		err = a.resumeSession(sessionPresent)
	}

	return returnFlags{}, err
}

func commandDisconnect(a *Agent, args any) (returnFlags, error) {
	_ = args

	err := a.client.Disconnect()

	return returnFlags{endLoop: true}, err
}

func commandPing(a *Agent, args any) (returnFlags, error) {
	_ = args

	err := a.client.Ping()

	return returnFlags{runProcessLoop: true}, err
}

func commandTerminate(a *Agent, args any) (returnFlags, error) {
	_ = args

	a.logger.Info("terminating command loop")

	// Cancel everything still waiting in the queue, without blocking.
	for {
		cmd, ok := a.messenger.Receive(0)
		if cmd != nil {
			cmd.complete(CommandResult{Err: ErrBadResponse})
			a.messenger.Release(cmd)
		}

		if !ok {
			break
		}
	}

	// Cancel everything awaiting a broker acknowledgment.
	a.drainPendingAcks(ErrBadResponse)

	return returnFlags{endLoop: true}, nil
}
