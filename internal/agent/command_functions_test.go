package agent

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
)

// =============================================================================
// Publish Handler Tests
// =============================================================================

func TestCommandPublishQoS0(t *testing.T) {
	a, client, _ := newTestAgent()
	info := &mqttclient.PublishInfo{Topic: "a/b", QoS: 0}

	flags, err := commandPublish(a, info)
	if err != nil {
		t.Fatalf("commandPublish() error = %v", err)
	}

	if flags.addAck {
		t.Error("QoS 0 publish requested an ack slot")
	}

	if flags.packetID != 0 {
		t.Errorf("QoS 0 publish allocated packet id %d, want 0", flags.packetID)
	}

	if !flags.runProcessLoop {
		t.Error("runProcessLoop = false, want true")
	}

	if len(client.publishes) != 1 || client.publishes[0].packetID != 0 {
		t.Errorf("client publishes = %+v, want one call with packet id 0", client.publishes)
	}
}

func TestCommandPublishQoS1(t *testing.T) {
	a, client, _ := newTestAgent()
	info := &mqttclient.PublishInfo{Topic: "a/b", QoS: 1}

	flags, err := commandPublish(a, info)
	if err != nil {
		t.Fatalf("commandPublish() error = %v", err)
	}

	if !flags.addAck {
		t.Error("QoS 1 publish did not request an ack slot")
	}

	if flags.packetID == 0 {
		t.Error("QoS 1 publish got packet id 0")
	}

	if client.publishes[0].packetID != flags.packetID {
		t.Errorf("published with id %d, flags carry %d", client.publishes[0].packetID, flags.packetID)
	}
}

func TestCommandPublishFailureSkipsAck(t *testing.T) {
	a, client, _ := newTestAgent()
	client.publishErr = errors.New("wire broke")

	flags, err := commandPublish(a, &mqttclient.PublishInfo{Topic: "a/b", QoS: 1})
	if err == nil {
		t.Fatal("commandPublish() error = nil, want failure")
	}

	if flags.addAck {
		t.Error("failed publish still requested an ack slot")
	}
}

// =============================================================================
// Subscribe / Unsubscribe Handler Tests
// =============================================================================

func TestCommandSubscribe(t *testing.T) {
	a, client, _ := newTestAgent()
	args := &SubscribeArgs{Subscriptions: []mqttclient.Subscription{{Topic: "x", QoS: 1}}}

	flags, err := commandSubscribe(a, args)
	if err != nil {
		t.Fatalf("commandSubscribe() error = %v", err)
	}

	if !flags.addAck || flags.packetID == 0 || !flags.runProcessLoop {
		t.Errorf("flags = %+v, want addAck with a packet id and a process-loop run", flags)
	}

	if len(client.subscribes) != 1 {
		t.Fatalf("client subscribes = %d, want 1", len(client.subscribes))
	}
}

func TestCommandUnsubscribe(t *testing.T) {
	a, client, _ := newTestAgent()
	args := &SubscribeArgs{Subscriptions: []mqttclient.Subscription{{Topic: "x"}}}

	flags, err := commandUnsubscribe(a, args)
	if err != nil {
		t.Fatalf("commandUnsubscribe() error = %v", err)
	}

	if !flags.addAck || flags.packetID == 0 {
		t.Errorf("flags = %+v, want addAck with a packet id", flags)
	}

	if len(client.unsubscribes) != 1 {
		t.Fatalf("client unsubscribes = %d, want 1", len(client.unsubscribes))
	}
}

// =============================================================================
// Connect Handler Tests
// =============================================================================

func TestCommandConnectCleanSessionClearsPending(t *testing.T) {
	a, client, _ := newTestAgent()
	client.sessionPresent = false

	var recorder completionRecorder

	a.addAwaitingAck(9, &Command{Type: CommandSubscribe, Complete: recorder.callback()})

	args := &ConnectArgs{Info: &mqttclient.ConnectInfo{ClientID: "t"}}

	flags, err := commandConnect(a, args)
	if err != nil {
		t.Fatalf("commandConnect() error = %v", err)
	}

	if flags.addAck || flags.runProcessLoop || flags.endLoop {
		t.Errorf("flags = %+v, want all false", flags)
	}

	if args.SessionPresent {
		t.Error("SessionPresent = true, want false")
	}

	if len(recorder.results) != 1 || !errors.Is(recorder.results[0].Err, ErrRecvFailed) {
		t.Errorf("pending command results = %+v, want one ErrRecvFailed", recorder.results)
	}
}

func TestCommandConnectSessionPresentRetransmits(t *testing.T) {
	a, client, _ := newTestAgent()
	client.sessionPresent = true
	client.resendIDs = []uint16{3, 7}

	pub3 := &mqttclient.PublishInfo{Topic: "a", QoS: 1}
	pub7 := &mqttclient.PublishInfo{Topic: "b", QoS: 1}
	a.addAwaitingAck(3, &Command{Type: CommandPublish, Args: pub3})
	a.addAwaitingAck(7, &Command{Type: CommandPublish, Args: pub7})

	args := &ConnectArgs{Info: &mqttclient.ConnectInfo{ClientID: "t"}}

	if _, err := commandConnect(a, args); err != nil {
		t.Fatalf("commandConnect() error = %v", err)
	}

	if !args.SessionPresent {
		t.Error("SessionPresent = false, want true")
	}

	if len(client.publishes) != 2 {
		t.Fatalf("retransmitted %d publishes, want 2", len(client.publishes))
	}

	if client.publishes[0].packetID != 3 || client.publishes[1].packetID != 7 {
		t.Errorf("retransmit order = [%d %d], want [3 7]",
			client.publishes[0].packetID, client.publishes[1].packetID)
	}

	if !pub3.Dup || !pub7.Dup {
		t.Error("retransmitted publishes missing the DUP flag")
	}
}

func TestCommandConnectFailure(t *testing.T) {
	a, client, _ := newTestAgent()
	client.connectErr = errors.New("refused")

	_, err := commandConnect(a, &ConnectArgs{Info: &mqttclient.ConnectInfo{}})
	if err == nil {
		t.Fatal("commandConnect() error = nil, want failure")
	}
}

// =============================================================================
// Disconnect / Ping / Terminate Handler Tests
// =============================================================================

func TestCommandDisconnect(t *testing.T) {
	a, client, _ := newTestAgent()

	flags, err := commandDisconnect(a, nil)
	if err != nil {
		t.Fatalf("commandDisconnect() error = %v", err)
	}

	if !flags.endLoop {
		t.Error("endLoop = false, want true")
	}

	if client.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", client.disconnects)
	}
}

func TestCommandPing(t *testing.T) {
	a, client, _ := newTestAgent()

	flags, err := commandPing(a, nil)
	if err != nil {
		t.Fatalf("commandPing() error = %v", err)
	}

	if !flags.runProcessLoop {
		t.Error("runProcessLoop = false, want true")
	}

	if client.pings != 1 {
		t.Errorf("pings = %d, want 1", client.pings)
	}
}

func TestCommandTerminate(t *testing.T) {
	a, _, messenger := newTestAgent()

	var queued, pending completionRecorder

	messenger.queue = append(messenger.queue, &Command{
		Type:     CommandPublish,
		Complete: queued.callback(),
	})
	a.addAwaitingAck(9, &Command{Type: CommandSubscribe, Complete: pending.callback()})

	flags, err := commandTerminate(a, nil)
	if err != nil {
		t.Fatalf("commandTerminate() error = %v", err)
	}

	if !flags.endLoop {
		t.Error("endLoop = false, want true")
	}

	if len(queued.results) != 1 || !errors.Is(queued.results[0].Err, ErrBadResponse) {
		t.Errorf("queued command results = %+v, want one ErrBadResponse", queued.results)
	}

	if len(pending.results) != 1 || !errors.Is(pending.results[0].Err, ErrBadResponse) {
		t.Errorf("pending command results = %+v, want one ErrBadResponse", pending.results)
	}

	if a.findAwaitingAck(9) != nil {
		t.Error("pending ack slot still occupied after terminate")
	}

	// Both the queued command and the pending one must go back to the pool.
	if len(messenger.released) != 2 {
		t.Errorf("released %d commands, want 2", len(messenger.released))
	}
}

func TestCommandProcessLoopFlags(t *testing.T) {
	a, _, _ := newTestAgent()

	flags, err := commandProcessLoop(a, nil)
	if err != nil {
		t.Fatalf("commandProcessLoop() error = %v", err)
	}

	if !flags.runProcessLoop || flags.addAck || flags.endLoop {
		t.Errorf("flags = %+v, want only runProcessLoop", flags)
	}
}
