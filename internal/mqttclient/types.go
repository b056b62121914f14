package mqttclient

// Packet type bytes as they appear in the MQTT fixed header (packet type in
// the upper nibble, mandatory flags in the lower). These are the values the
// event callback receives in PacketInfo.Type.
const (
	PacketTypeConnect     byte = 0x10
	PacketTypeConnack     byte = 0x20
	PacketTypePublish     byte = 0x30
	PacketTypePuback      byte = 0x40
	PacketTypePubrec      byte = 0x50
	PacketTypePubrel      byte = 0x62
	PacketTypePubcomp     byte = 0x70
	PacketTypeSubscribe   byte = 0x82
	PacketTypeSuback      byte = 0x90
	PacketTypeUnsubscribe byte = 0xA2
	PacketTypeUnsuback    byte = 0xB0
	PacketTypePingreq     byte = 0xC0
	PacketTypePingresp    byte = 0xD0
	PacketTypeDisconnect  byte = 0xE0
)

// PublishInfo describes one application message, outgoing or incoming.
//
// For outgoing publishes the caller owns the struct and the payload; they
// must stay live and unmodified until the operation's completion callback
// fires, because the protocol layer borrows them (it never copies) and a
// session resume may retransmit from the same struct with Dup set.
type PublishInfo struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
	Dup     bool
}

// Subscription is a single topic filter with its requested maximum QoS.
type Subscription struct {
	Topic string
	QoS   byte
}

// ConnectInfo carries the CONNECT parameters.
type ConnectInfo struct {
	ClientID  string
	Username  string
	Password  []byte
	KeepAlive uint16

	// CleanSession requests a fresh session (MQTT 5 Clean Start). When false
	// the broker may resume prior session state, reported through the
	// session-present flag of the CONNACK.
	CleanSession bool
}

// PacketInfo describes one inbound packet at the wire level.
//
// Type is the raw first byte of the fixed header. RemainingData is rebuilt
// from the decoded packet: the two-byte packet identifier followed by the
// reason code(s); MQTT 5 properties are not included. For a SUBACK the
// per-filter reason codes therefore begin two bytes into it, after the
// packet identifier. It is empty for PUBLISH packets.
type PacketInfo struct {
	Type          byte
	RemainingData []byte
}

// DeserializedInfo carries the decoded form of one inbound packet.
//
// PacketID is zero for packets that carry no identifier. Publish is non-nil
// only for inbound PUBLISH packets. Err reports a deserialization problem
// with an otherwise-framed packet.
type DeserializedInfo struct {
	PacketID uint16
	Publish  *PublishInfo
	Err      error
}

// EventCallback is invoked for every inbound packet, from within
// ProcessLoop, on the goroutine that called it.
type EventCallback func(packet *PacketInfo, info *DeserializedInfo)
