package mqttclient

import (
	"fmt"
	"time"

	"github.com/eclipse/paho.golang/packets"
)

// Connect sends a CONNECT and blocks until the broker's CONNACK arrives or
// timeout expires. On success it reports the CONNACK session-present flag;
// with info.CleanSession set the resend queue is dropped first, because a
// clean session can never acknowledge earlier publishes.
//
// Connect is the one protocol operation that intentionally blocks its
// caller: nothing else can legally happen on the connection until the
// broker answers.
func (c *Core) Connect(info *ConnectInfo, will *PublishInfo, timeout time.Duration) (bool, error) {
	if info == nil {
		return false, ErrUnexpectedPacket
	}

	cp := packets.NewControlPacket(packets.CONNECT)
	connect := cp.Content.(*packets.Connect)

	connect.ClientID = info.ClientID
	connect.KeepAlive = info.KeepAlive
	connect.CleanStart = info.CleanSession

	if info.Username != "" {
		connect.UsernameFlag = true
		connect.Username = info.Username
	}

	if len(info.Password) > 0 {
		connect.PasswordFlag = true
		connect.Password = info.Password
	}

	if will != nil {
		connect.WillFlag = true
		connect.WillTopic = will.Topic
		connect.WillMessage = will.Payload
		connect.WillQOS = will.QoS
		connect.WillRetain = will.Retain
	}

	if info.CleanSession {
		c.resendQueue = c.resendQueue[:0]
	}

	if err := c.send(cp); err != nil {
		return false, err
	}

	return c.awaitConnack(timeout)
}

// awaitConnack reads the broker's first packet, which the protocol requires
// to be the CONNACK.
func (c *Core) awaitConnack(timeout time.Duration) (bool, error) {
	readable, err := c.conn.Readable(timeout)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRecvFailed, err)
	}

	if !readable {
		return false, fmt.Errorf("%w: no CONNACK within %v", ErrTimeout, timeout)
	}

	cp, err := packets.ReadPacket(c.conn)
	if err != nil {
		return false, fmt.Errorf("%w: reading CONNACK: %w", ErrRecvFailed, err)
	}

	connack, ok := cp.Content.(*packets.Connack)
	if !ok {
		return false, fmt.Errorf("%w: want CONNACK, got type 0x%02x", ErrUnexpectedPacket, cp.Type)
	}

	if connack.ReasonCode >= 0x80 {
		return false, fmt.Errorf("%w: reason code 0x%02x", ErrConnectionFailed, connack.ReasonCode)
	}

	c.connected = true
	c.logger.Debug("connected to broker", "session_present", connack.SessionPresent)

	return connack.SessionPresent, nil
}
