package agent

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
)

// =============================================================================
// Session Resume Tests
// =============================================================================

func TestResumeSessionSkipsUnknownPacketIDs(t *testing.T) {
	a, client, _ := newTestAgent()

	// The protocol layer reports id 4 as needing a resend, but the agent
	// holds no matching operation; it may track state the agent does not
	// mirror, so the id is skipped, not an error.
	pub := &mqttclient.PublishInfo{Topic: "a", QoS: 1}
	a.addAwaitingAck(3, &Command{Type: CommandPublish, Args: pub})
	client.resendIDs = []uint16{4, 3}

	if err := a.resumeSession(true); err != nil {
		t.Fatalf("resumeSession() error = %v", err)
	}

	if len(client.publishes) != 1 || client.publishes[0].packetID != 3 {
		t.Errorf("publishes = %+v, want only packet id 3", client.publishes)
	}
}

func TestResumeSessionStopsOnFirstFailure(t *testing.T) {
	a, client, _ := newTestAgent()

	a.addAwaitingAck(3, &Command{Type: CommandPublish, Args: &mqttclient.PublishInfo{QoS: 1}})
	a.addAwaitingAck(7, &Command{Type: CommandPublish, Args: &mqttclient.PublishInfo{QoS: 1}})
	client.resendIDs = []uint16{3, 7}

	wireErr := errors.New("wire broke")
	client.publishErr = wireErr

	if err := a.resumeSession(true); !errors.Is(err, wireErr) {
		t.Fatalf("resumeSession() error = %v, want the publish failure", err)
	}
}

func TestResumeSessionKeepsSlotsWhileRetransmitting(t *testing.T) {
	a, client, _ := newTestAgent()

	pub := &mqttclient.PublishInfo{Topic: "a", QoS: 1}
	a.addAwaitingAck(3, &Command{Type: CommandPublish, Args: pub})
	client.resendIDs = []uint16{3}

	if err := a.resumeSession(true); err != nil {
		t.Fatalf("resumeSession() error = %v", err)
	}

	// The retransmitted publish still awaits its PUBACK.
	if a.findAwaitingAck(3) == nil {
		t.Error("resume removed the pending ack of a retransmitted publish")
	}
}

func TestResumeSessionCleanDrainsWithRecvFailed(t *testing.T) {
	a, _, messenger := newTestAgent()

	var recorder completionRecorder

	a.addAwaitingAck(3, &Command{Type: CommandPublish, Complete: recorder.callback()})
	a.addAwaitingAck(7, &Command{Type: CommandSubscribe, Complete: recorder.callback()})

	if err := a.resumeSession(false); err != nil {
		t.Fatalf("resumeSession(false) error = %v", err)
	}

	if len(recorder.results) != 2 {
		t.Fatalf("completions fired %d times, want 2", len(recorder.results))
	}

	for i, result := range recorder.results {
		if !errors.Is(result.Err, ErrRecvFailed) {
			t.Errorf("completion %d error = %v, want ErrRecvFailed", i, result.Err)
		}
	}

	if len(messenger.released) != 2 {
		t.Errorf("released %d commands, want 2", len(messenger.released))
	}

	for i := range a.pendingAcks {
		if a.pendingAcks[i].packetID != 0 {
			t.Fatal("pending acks remain after a clean resume")
		}
	}
}
