package mqttclient

import (
	"fmt"
	"time"

	"github.com/eclipse/paho.golang/packets"

	"github.com/nerrad567/gray-logic-agent/internal/transport"
)

// defaultNetworkBufferSize is the assumed outgoing buffer size when none is
// configured; the agent uses it to reject publishes whose topic cannot fit.
const defaultNetworkBufferSize = 4096

// defaultPollInterval is how long ProcessLoop gives the transport to
// surface a first byte. Kept near zero: the process loop must never be a
// meaningful blocking point, that is the command queue's job.
const defaultPollInterval = time.Millisecond

// Core implements Client over a transport.Conn using the
// eclipse/paho.golang packet codec.
//
// Core is single-threaded by contract: all methods, including the event
// callback it invokes, run on whichever goroutine drives it; in this
// repository, the agent's command loop.
type Core struct {
	conn   *transport.Conn
	cb     EventCallback
	logger Logger

	// nextPacketID is the next identifier to hand out. Zero means the
	// client was never initialised; New always starts it at one.
	nextPacketID uint16

	connected    bool
	bufferSize   int
	pollInterval time.Duration

	// resendQueue holds packet identifiers of QoS 1/2 publishes not yet
	// fully acknowledged, in send order. QoS 1 entries clear on PUBACK,
	// QoS 2 entries on PUBCOMP.
	resendQueue []uint16
}

// Logger is the minimal logging interface Core uses. It is satisfied by
// logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options tunes a Core. Zero values select the defaults.
type Options struct {
	// NetworkBufferSize is reported through NetworkBufferSize for the
	// agent's publish-header validation.
	NetworkBufferSize int

	// PollInterval bounds ProcessLoop's wait for a first readable byte.
	PollInterval time.Duration

	// Logger receives protocol diagnostics. Optional.
	Logger Logger
}

// New creates an initialised Core over an established transport
// connection. The event callback must be set before the first ProcessLoop.
func New(conn *transport.Conn, opts Options) *Core {
	bufferSize := opts.NetworkBufferSize
	if bufferSize <= 0 {
		bufferSize = defaultNetworkBufferSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Core{
		conn:         conn,
		logger:       logger,
		nextPacketID: 1,
		bufferSize:   bufferSize,
		pollInterval: pollInterval,
	}
}

// Attach replaces the transport after a network loss, keeping session
// state (packet identifiers and the resend queue) so a subsequent Connect
// with CleanSession=false can resume. The old connection is not closed.
func (c *Core) Attach(conn *transport.Conn) {
	c.conn = conn
	c.connected = false
}

// SetEventCallback registers the inbound-packet callback.
func (c *Core) SetEventCallback(cb EventCallback) {
	c.cb = cb
}

// NextPacketID allocates the next packet identifier, skipping zero on
// wrap-around because zero marks "no identifier" throughout the stack.
func (c *Core) NextPacketID() uint16 {
	id := c.nextPacketID

	c.nextPacketID++
	if c.nextPacketID == 0 {
		c.nextPacketID = 1
	}

	return id
}

// Initialized reports whether the client can allocate packet identifiers.
func (c *Core) Initialized() bool {
	return c != nil && c.nextPacketID != 0
}

// Connected reports whether a CONNACK has been accepted and the connection
// has not been lost or closed since.
func (c *Core) Connected() bool {
	return c != nil && c.connected
}

// NetworkBufferSize returns the configured outgoing buffer size.
func (c *Core) NetworkBufferSize() int {
	return c.bufferSize
}

// PublishesToResend returns the identifiers of QoS 1/2 publishes awaiting
// acknowledgment, oldest first. The slice is a copy, so later protocol
// calls do not change it.
func (c *Core) PublishesToResend() []uint16 {
	ids := make([]uint16, len(c.resendQueue))
	copy(ids, c.resendQueue)

	return ids
}

// Ping sends a PINGREQ. The PINGRESP is consumed by the process loop.
func (c *Core) Ping() error {
	if !c.connected {
		return ErrNotConnected
	}

	return c.send(packets.NewControlPacket(packets.PINGREQ))
}

// Disconnect sends a DISCONNECT and marks the session closed. The resend
// queue is kept: a later Attach plus Connect without clean session resumes
// it.
func (c *Core) Disconnect() error {
	if !c.connected {
		return ErrNotConnected
	}

	c.connected = false

	return c.send(packets.NewControlPacket(packets.DISCONNECT))
}

// send writes one control packet to the transport.
func (c *Core) send(cp *packets.ControlPacket) error {
	if _, err := cp.WriteTo(c.conn); err != nil {
		c.connected = false
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	return nil
}

// trackPublish records a QoS>0 publish for retransmission, keeping one
// entry per identifier so a DUP resend does not duplicate it.
func (c *Core) trackPublish(packetID uint16) {
	for _, id := range c.resendQueue {
		if id == packetID {
			return
		}
	}

	c.resendQueue = append(c.resendQueue, packetID)
}

// untrackPublish drops packetID from the resend queue once fully
// acknowledged.
func (c *Core) untrackPublish(packetID uint16) {
	for i, id := range c.resendQueue {
		if id == packetID {
			c.resendQueue = append(c.resendQueue[:i], c.resendQueue[i+1:]...)
			return
		}
	}
}
