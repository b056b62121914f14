// Package mqttclient provides the MQTT protocol layer beneath the command
// agent: the narrow Client contract the agent consumes, and Core, a
// deliberately single-threaded MQTT 5 implementation of it.
//
// This package manages:
//   - CONNECT/CONNACK handshakes with session-present reporting
//   - Packet encoding and decoding via eclipse/paho.golang/packets
//   - Packet-identifier allocation (never zero)
//   - Outgoing QoS 1/2 publish tracking for retransmission after reconnect
//   - The non-blocking process loop that drains inbound packets and fires
//     the event callback
//
// # Why single-threaded
//
// Core holds its protocol state without any locking and must only ever be
// driven from one goroutine. That is not an oversight; it is the contract
// the agent package is built to enforce. Multi-goroutine callers go through
// the agent, never through Core directly.
//
// # QoS 2
//
// Core keeps only sender-side QoS 2 state (a publish stays in the resend
// list until PUBCOMP) and answers the receiver-side handshake packets
// (PUBREC with PUBREL, PUBREL with PUBCOMP) without deduplicating
// redelivered publishes. Applications needing exactly-once delivery must
// deduplicate by packet identifier.
//
// # Usage
//
//	conn, err := transport.Dial("broker.local:1883", nil, 10*time.Second, transport.Options{})
//	if err != nil {
//	    return err
//	}
//	core := mqttclient.New(conn, mqttclient.Options{})
//	core.SetEventCallback(onEvent)
//
//	sessionPresent, err := core.Connect(&mqttclient.ConnectInfo{
//	    ClientID:  "graylogic-agent-01",
//	    KeepAlive: 60,
//	}, nil, 10*time.Second)
package mqttclient
