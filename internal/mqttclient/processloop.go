package mqttclient

import (
	"fmt"

	"github.com/eclipse/paho.golang/packets"
)

// ProcessLoop drives the protocol machine once without blocking. If no
// inbound data is readable it returns immediately; otherwise it reads
// exactly one packet, performs any protocol response it requires, and
// delivers it to the event callback. Callers drain a backlog by calling
// ProcessLoop until the callback stops firing.
func (c *Core) ProcessLoop() error {
	if !c.connected {
		return ErrNotConnected
	}

	readable, err := c.conn.Readable(c.pollInterval)
	if err != nil {
		c.connected = false
		return fmt.Errorf("%w: %w", ErrRecvFailed, err)
	}

	if !readable {
		return nil
	}

	cp, err := packets.ReadPacket(c.conn)
	if err != nil {
		c.connected = false
		return fmt.Errorf("%w: %w", ErrRecvFailed, err)
	}

	return c.route(cp)
}

// route performs the protocol-internal handling for one inbound packet and
// surfaces it to the event callback.
func (c *Core) route(cp *packets.ControlPacket) error {
	switch content := cp.Content.(type) {
	case *packets.Publish:
		return c.routePublish(cp, content)

	case *packets.Puback:
		c.untrackPublish(content.PacketID)
		c.emit(cp, content.PacketID, ackRemainingData(content.PacketID, content.ReasonCode))

	case *packets.Pubrec:
		// Sender-side QoS 2 step 2: answer with PUBREL, keep the publish
		// tracked until PUBCOMP. Surfaced to the callback, which ignores it.
		if err := c.sendPubrel(content.PacketID); err != nil {
			return err
		}

		c.emit(cp, content.PacketID, ackRemainingData(content.PacketID, content.ReasonCode))

	case *packets.Pubrel:
		// Receiver-side QoS 2 step 3: answer with PUBCOMP.
		if err := c.sendPubcomp(content.PacketID); err != nil {
			return err
		}

		c.emit(cp, content.PacketID, ackRemainingData(content.PacketID, content.ReasonCode))

	case *packets.Pubcomp:
		c.untrackPublish(content.PacketID)
		c.emit(cp, content.PacketID, ackRemainingData(content.PacketID, content.ReasonCode))

	case *packets.Suback:
		c.emit(cp, content.PacketID, subackRemainingData(content.PacketID, content.Reasons))

	case *packets.Unsuback:
		c.emit(cp, content.PacketID, subackRemainingData(content.PacketID, content.Reasons))

	case *packets.Pingresp:
		// Keep-alive housekeeping completes here; the agent never sees it.
		c.logger.Debug("ping response received")

	case *packets.Disconnect:
		c.connected = false
		c.logger.Warn("broker sent DISCONNECT", "reason_code", content.ReasonCode)

	default:
		c.logger.Warn("dropping unexpected inbound packet", "type", cp.Type)
	}

	return nil
}

// routePublish acknowledges an inbound PUBLISH per its QoS and delivers it.
func (c *Core) routePublish(cp *packets.ControlPacket, publish *packets.Publish) error {
	switch publish.QoS {
	case 1:
		ack := packets.NewControlPacket(packets.PUBACK)
		ack.Content.(*packets.Puback).PacketID = publish.PacketID

		if err := c.send(ack); err != nil {
			return err
		}

	case 2:
		rec := packets.NewControlPacket(packets.PUBREC)
		rec.Content.(*packets.Pubrec).PacketID = publish.PacketID

		if err := c.send(rec); err != nil {
			return err
		}
	}

	info := &DeserializedInfo{
		PacketID: publish.PacketID,
		Publish: &PublishInfo{
			Topic:   publish.Topic,
			Payload: publish.Payload,
			QoS:     publish.QoS,
			Retain:  publish.Retain,
			Dup:     publish.Duplicate,
		},
	}

	c.invoke(&PacketInfo{Type: rawType(cp)}, info)

	return nil
}

func (c *Core) sendPubrel(packetID uint16) error {
	rel := packets.NewControlPacket(packets.PUBREL)
	rel.Content.(*packets.Pubrel).PacketID = packetID

	return c.send(rel)
}

func (c *Core) sendPubcomp(packetID uint16) error {
	comp := packets.NewControlPacket(packets.PUBCOMP)
	comp.Content.(*packets.Pubcomp).PacketID = packetID

	return c.send(comp)
}

// emit delivers a non-publish packet to the event callback.
func (c *Core) emit(cp *packets.ControlPacket, packetID uint16, remainingData []byte) {
	c.invoke(
		&PacketInfo{Type: rawType(cp), RemainingData: remainingData},
		&DeserializedInfo{PacketID: packetID},
	)
}

func (c *Core) invoke(packet *PacketInfo, info *DeserializedInfo) {
	if c.cb != nil {
		c.cb(packet, info)
	}
}

// rawType reconstructs the first byte of the fixed header: packet type in
// the upper nibble, flags in the lower.
func rawType(cp *packets.ControlPacket) byte {
	return cp.Type<<4 | cp.Flags
}

// ackRemainingData rebuilds the remaining data of a two-byte-identifier
// acknowledgment: identifier, then reason code.
func ackRemainingData(packetID uint16, reasonCode byte) []byte {
	return []byte{byte(packetID >> 8), byte(packetID), reasonCode}
}

// subackRemainingData rebuilds the remaining data of a SUBACK or UNSUBACK:
// identifier, then one reason code per topic filter. The agent exposes the
// codes starting two bytes in.
func subackRemainingData(packetID uint16, reasons []byte) []byte {
	data := make([]byte, 0, 2+len(reasons))
	data = append(data, byte(packetID>>8), byte(packetID))
	data = append(data, reasons...)

	return data
}
