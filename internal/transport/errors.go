package transport

import "errors"

// Domain-specific errors for transport operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDialFailed is returned when the broker connection cannot be
	// established.
	ErrDialFailed = errors.New("transport: dial failed")

	// ErrClosed is returned for operations on a closed connection.
	ErrClosed = errors.New("transport: connection closed")
)
