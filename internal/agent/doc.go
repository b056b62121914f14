// Package agent serialises access to a single-threaded MQTT protocol client
// so that any number of goroutines can share one broker connection.
//
// This package manages:
//   - A command queue drained by exactly one command-loop goroutine
//   - A dispatch table mapping command types to protocol operations
//   - A fixed-size table of operations awaiting broker acknowledgments
//   - Routing of inbound packets to completions and the publish callback
//   - Session resumption and publish retransmission after reconnect
//
// # Architecture
//
// Producer goroutines call the public API (Publish, Subscribe, Connect, ...).
// Each call validates its arguments, acquires a command record from the
// messaging pool, and enqueues it. The command loop dequeues in FIFO order,
// invokes the protocol operation, and parks any command the broker will
// acknowledge in the pending-ack table until the matching PUBACK, PUBCOMP,
// SUBACK, or UNSUBACK arrives.
//
//	producers → Messenger queue → command loop → mqttclient.Client → broker
//	                                   ↑ ProcessLoop delivers inbound packets
//
// The protocol client itself is never touched from any other goroutine, so
// it needs no locking of its own.
//
// # Ownership
//
// A command is released back to the pool exactly once: immediately after
// dispatch when no acknowledgment is expected, when its acknowledgment
// arrives, or when Terminate or a clean session resume cancels it. Argument
// structs (PublishInfo, SubscribeArgs, ConnectArgs) are borrowed from the
// caller and must stay live until the completion callback fires.
//
// # Callbacks
//
// Completion callbacks and the incoming-publish callback run on the command
// loop goroutine. They must not block, and if they enqueue further commands
// they must do so with a zero wait: blocking against the agent's own full
// queue deadlocks the loop.
//
// # Usage
//
//	ag, err := agent.New(agent.Options{
//	    Client:            core,
//	    Messenger:         bus,
//	    OnIncomingPublish: handlePublish,
//	})
//	go ag.CommandLoop()
//
//	err = ag.Connect(&agent.ConnectArgs{Info: info, Timeout: 10 * time.Second},
//	    agent.CommandOptions{Complete: onConnected, Wait: time.Second})
package agent
