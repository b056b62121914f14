package mqttclient

import "github.com/eclipse/paho.golang/packets"

// Publish sends a PUBLISH. packetID must be zero for QoS 0 and a non-zero
// allocated identifier otherwise. Passing an identifier already in the
// resend queue retransmits that publish under the same identifier; the
// caller marks info.Dup.
func (c *Core) Publish(info *PublishInfo, packetID uint16) error {
	if !c.connected {
		return ErrNotConnected
	}

	cp := packets.NewControlPacket(packets.PUBLISH)
	publish := cp.Content.(*packets.Publish)

	publish.Topic = info.Topic
	publish.Payload = info.Payload
	publish.QoS = info.QoS
	publish.Retain = info.Retain
	publish.Duplicate = info.Dup
	publish.PacketID = packetID

	// Track before writing: a publish that failed mid-write may still have
	// reached the broker, so it must stay eligible for DUP retransmission.
	if info.QoS != 0 {
		c.trackPublish(packetID)
	}

	return c.send(cp)
}

// Subscribe sends a SUBSCRIBE carrying the given filters under one packet
// identifier.
func (c *Core) Subscribe(subscriptions []Subscription, packetID uint16) error {
	if !c.connected {
		return ErrNotConnected
	}

	cp := packets.NewControlPacket(packets.SUBSCRIBE)
	subscribe := cp.Content.(*packets.Subscribe)
	subscribe.PacketID = packetID

	for _, sub := range subscriptions {
		subscribe.Subscriptions = append(subscribe.Subscriptions, packets.SubOptions{
			Topic: sub.Topic,
			QoS:   sub.QoS,
		})
	}

	return c.send(cp)
}

// Unsubscribe sends an UNSUBSCRIBE for the given filters.
func (c *Core) Unsubscribe(subscriptions []Subscription, packetID uint16) error {
	if !c.connected {
		return ErrNotConnected
	}

	cp := packets.NewControlPacket(packets.UNSUBSCRIBE)
	unsubscribe := cp.Content.(*packets.Unsubscribe)
	unsubscribe.PacketID = packetID

	for _, sub := range subscriptions {
		unsubscribe.Topics = append(unsubscribe.Topics, sub.Topic)
	}

	return c.send(cp)
}
