package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ndeks/nextlevel-backend/internal/notify"
)

// Device is a simulated push device connected to the notification socket.
type Device struct {
	conn  *websocket.Conn
	Token string
}

// ConnectDevice opens the socket with accessToken and waits for the device
// token the server assigns.
func ConnectDevice(apiURL, accessToken string) (*Device, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API_URL: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = strings.TrimSuffix(u.Path, "/") + "/notifications/ws"
	u.RawQuery = url.Values{"token": {accessToken}}.Encode()

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}

	d := &Device{conn: conn}
	msg, err := d.Next()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if msg.Type != notify.MessageTypeDeviceRegistered {
		conn.Close()
		return nil, fmt.Errorf("expected %s, got %s", notify.MessageTypeDeviceRegistered, msg.Type)
	}

	var payload notify.DeviceRegisteredPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode device payload: %w", err)
	}
	d.Token = payload.DeviceToken
	return d, nil
}

// Subscribe asks for broadcasts on topic. The acknowledgement arrives
// through Next.
func (d *Device) Subscribe(topic string) error {
	msg, err := notify.NewMessage(notify.MessageTypeSubscribe, notify.TopicPayload{Topic: topic})
	if err != nil {
		return err
	}
	return d.conn.WriteJSON(msg)
}

// Next blocks until the server sends a message.
func (d *Device) Next() (*notify.Message, error) {
	var msg notify.Message
	if err := d.conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (d *Device) Close() error {
	d.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return d.conn.Close()
}

// describe renders a server message for the terminal.
func describe(msg *notify.Message) string {
	switch msg.Type {
	case notify.MessageTypeNotification:
		var n notify.NotificationPayload
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			return fmt.Sprintf("NOTIFICATION (undecodable: %v)", err)
		}
		line := fmt.Sprintf("NOTIFICATION %q: %s", n.Title, n.Body)
		if n.Topic != "" {
			line += fmt.Sprintf(" [topic %s]", n.Topic)
		}
		if len(n.Data) > 0 {
			line += fmt.Sprintf(" data=%v", n.Data)
		}
		return line
	default:
		return fmt.Sprintf("%s %s", msg.Type, string(msg.Payload))
	}
}
