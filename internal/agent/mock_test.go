package agent

import (
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
)

// Test doubles for the agent's two collaborators. Both are deliberately
// single-threaded: the tests drive processCommand and handleEvent directly
// on the test goroutine, exactly as the command loop would.

// publishCall records one Publish invocation on the fake client.
type publishCall struct {
	info     *mqttclient.PublishInfo
	packetID uint16
}

// subscribeCall records one Subscribe or Unsubscribe invocation.
type subscribeCall struct {
	subs     []mqttclient.Subscription
	packetID uint16
}

// fakeClient is a scriptable mqttclient.Client.
type fakeClient struct {
	initialized bool
	connected   bool
	nextID      uint16
	bufSize     int

	cb mqttclient.EventCallback

	publishes    []publishCall
	subscribes   []subscribeCall
	unsubscribes []subscribeCall
	pings        int
	disconnects  int

	publishErr     error
	subscribeErr   error
	unsubscribeErr error
	connectErr     error
	pingErr        error
	disconnectErr  error

	sessionPresent bool
	resendIDs      []uint16

	// processLoopFn, when set, runs in place of the default no-op process
	// loop; tests use it to inject inbound events mid-drain.
	processLoopFn func() error
	processCalls  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		initialized: true,
		connected:   true,
		nextID:      5,
		bufSize:     1024,
	}
}

func (f *fakeClient) Connect(_ *mqttclient.ConnectInfo, _ *mqttclient.PublishInfo, _ time.Duration) (bool, error) {
	if f.connectErr != nil {
		return false, f.connectErr
	}

	f.connected = true

	return f.sessionPresent, nil
}

func (f *fakeClient) Publish(info *mqttclient.PublishInfo, packetID uint16) error {
	if f.publishErr != nil {
		return f.publishErr
	}

	f.publishes = append(f.publishes, publishCall{info: info, packetID: packetID})

	return nil
}

func (f *fakeClient) Subscribe(subs []mqttclient.Subscription, packetID uint16) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}

	f.subscribes = append(f.subscribes, subscribeCall{subs: subs, packetID: packetID})

	return nil
}

func (f *fakeClient) Unsubscribe(subs []mqttclient.Subscription, packetID uint16) error {
	if f.unsubscribeErr != nil {
		return f.unsubscribeErr
	}

	f.unsubscribes = append(f.unsubscribes, subscribeCall{subs: subs, packetID: packetID})

	return nil
}

func (f *fakeClient) Disconnect() error {
	f.disconnects++
	f.connected = false

	return f.disconnectErr
}

func (f *fakeClient) Ping() error {
	if f.pingErr != nil {
		return f.pingErr
	}

	f.pings++

	return nil
}

func (f *fakeClient) ProcessLoop() error {
	f.processCalls++

	if f.processLoopFn != nil {
		return f.processLoopFn()
	}

	return nil
}

func (f *fakeClient) NextPacketID() uint16 {
	id := f.nextID
	f.nextID++

	return id
}

func (f *fakeClient) PublishesToResend() []uint16 { return f.resendIDs }
func (f *fakeClient) Initialized() bool           { return f.initialized }
func (f *fakeClient) Connected() bool             { return f.connected }
func (f *fakeClient) NetworkBufferSize() int      { return f.bufSize }

func (f *fakeClient) SetEventCallback(cb mqttclient.EventCallback) { f.cb = cb }

// fakeMessenger is a slice-backed Messenger for single-goroutine tests.
type fakeMessenger struct {
	queue    []*Command
	released []*Command

	acquireFail bool
	sendFail    bool
}

func (m *fakeMessenger) Send(cmd *Command, _ time.Duration) bool {
	if m.sendFail {
		return false
	}

	m.queue = append(m.queue, cmd)

	return true
}

func (m *fakeMessenger) Receive(_ time.Duration) (*Command, bool) {
	if len(m.queue) == 0 {
		return nil, false
	}

	cmd := m.queue[0]
	m.queue = m.queue[1:]

	return cmd, true
}

func (m *fakeMessenger) Acquire(_ time.Duration) *Command {
	if m.acquireFail {
		return nil
	}

	return &Command{}
}

func (m *fakeMessenger) Release(cmd *Command) bool {
	m.released = append(m.released, cmd)

	return true
}

// newTestAgent wires an Agent to fresh fakes.
func newTestAgent() (*Agent, *fakeClient, *fakeMessenger) {
	client := newFakeClient()
	messenger := &fakeMessenger{}

	a, err := New(Options{
		Client:            client,
		Messenger:         messenger,
		OnIncomingPublish: func(uint16, *mqttclient.PublishInfo) {},
	})
	if err != nil {
		panic(err)
	}

	return a, client, messenger
}

// completionRecorder captures results delivered to a completion callback.
type completionRecorder struct {
	results []CommandResult
}

func (r *completionRecorder) callback() CompletionFunc {
	return func(result CommandResult) {
		r.results = append(r.results, result)
	}
}
