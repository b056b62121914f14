package agent

import "errors"

// Domain-specific errors for agent operations.
// Use errors.Is() to check for these errors in calling code. Failures from
// the protocol layer are passed through verbatim and are not remapped.
var (
	// ErrBadParameter is returned synchronously for invalid arguments, an
	// unwired agent, or an uninitialised protocol client. No state changes.
	ErrBadParameter = errors.New("agent: bad parameter")

	// ErrNoMemory is returned when the command pool is exhausted or the
	// pending-ack table has no free slot for an operation that needs one.
	ErrNoMemory = errors.New("agent: no free command or acknowledgment slot")

	// ErrSendFailed is returned when the command queue stayed full for the
	// caller's whole wait. The acquired command is released before returning.
	ErrSendFailed = errors.New("agent: command queue send timed out")

	// ErrBadResponse is the cancellation signal: Terminate completes every
	// queued command and pending acknowledgment with this error.
	ErrBadResponse = errors.New("agent: command cancelled by terminate")

	// ErrRecvFailed reports that the broker connection was lost before an
	// acknowledgment arrived; pending operations are completed with it when
	// a reconnect yields no resumed session.
	ErrRecvFailed = errors.New("agent: connection lost before acknowledgment")
)
