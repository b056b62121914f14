package agent

import "github.com/nerrad567/gray-logic-agent/internal/mqttclient"

// Session resumption. Runs on the command loop goroutine only, from the
// connect command function once the CONNACK has been accepted.

// resumeSession reconciles the pending-ack table with the broker's session
// state after a connect.
//
// When the broker resumed the session, every QoS 1 and 2 publish still
// unacknowledged is retransmitted with the DUP flag set, under its original
// packet identifier, in the order the protocol layer reports. When the
// broker started a clean session, nothing in flight can ever be
// acknowledged, so every pending operation completes with ErrRecvFailed and
// its command is released; callers re-subscribe and re-publish at
// application level.
func (a *Agent) resumeSession(sessionPresent bool) error {
	if !sessionPresent {
		a.drainPendingAcks(ErrRecvFailed)
		return nil
	}

	return a.resendPublishes()
}

// resendPublishes retransmits unacknowledged publishes after a resumed
// session, stopping at the first failure.
//
// An identifier the protocol layer reports but the ack table does not hold
// is skipped, not treated as an error: the protocol layer may track state
// the agent does not mirror.
func (a *Agent) resendPublishes() error {
	for _, packetID := range a.client.PublishesToResend() {
		slot := a.findAwaitingAck(packetID)
		if slot == nil {
			continue
		}

		publish, ok := slot.command.Args.(*mqttclient.PublishInfo)
		if !ok {
			a.logger.Error("pending ack for resend is not a publish", "packet_id", packetID)
			continue
		}

		publish.Dup = true

		if err := a.client.Publish(publish, packetID); err != nil {
			a.logger.Error("resending publish failed", "packet_id", packetID, "error", err)
			return err
		}
	}

	return nil
}
