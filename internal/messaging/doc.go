// Package messaging provides the concrete command queue and command pool
// behind the agent's Messenger interface.
//
// This package manages:
//   - A bounded FIFO queue of command references, many producers, one consumer
//   - A fixed pool of reusable command records
//   - Bounded blocking on a full queue or empty pool
//   - Wake-ups that unblock the agent loop without carrying a command
//
// # Design
//
// Both queue and pool are buffered channels. A channel send/receive pair
// gives the exact semantics the agent contract asks for: FIFO ordering
// across producers, safe concurrent Send/Acquire/Release, and a single
// consumer calling Receive. Timeouts use one timer per bounded call; a zero
// wait degrades to a non-blocking try.
//
// Command records handed out by Acquire are zeroed on Release, so a record
// never leaks a previous command's callback or arguments to its next user.
//
// # Sizing
//
// The pool bounds how many commands can exist at once (queued plus awaiting
// acknowledgment); the queue bounds only the backlog the agent has not yet
// dispatched. A pool smaller than the agent's pending-ack table wastes ack
// slots that can never be filled.
package messaging
