package mqttclient

import "errors"

// Domain-specific errors for protocol operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned for operations that need an accepted
	// CONNACK first.
	ErrNotConnected = errors.New("mqttclient: not connected")

	// ErrConnectionFailed is returned when the broker refuses the CONNECT.
	ErrConnectionFailed = errors.New("mqttclient: connection refused")

	// ErrTimeout is returned when the CONNACK does not arrive in time.
	ErrTimeout = errors.New("mqttclient: operation timed out")

	// ErrUnexpectedPacket is returned when the broker violates the protocol,
	// for example by sending anything but a CONNACK first.
	ErrUnexpectedPacket = errors.New("mqttclient: unexpected packet")

	// ErrSendFailed is returned when a packet cannot be written to the
	// transport.
	ErrSendFailed = errors.New("mqttclient: send failed")

	// ErrRecvFailed is returned when the transport fails mid-session; the
	// connection is considered lost.
	ErrRecvFailed = errors.New("mqttclient: receive failed")
)
