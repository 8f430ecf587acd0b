package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/ndeks/nextlevel-backend/internal/notify"
)

// WSClient is a test client for the notification socket
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *notify.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to url and fails the test if the handshake fails
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, err := DialWS(url)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *notify.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// DialWS performs the websocket handshake and returns the raw connection.
// Tests that expect the handshake to be refused inspect the error.
func DialWS(url string) (*gorillaWS.Conn, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg notify.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

func (c *WSClient) send(msgType notify.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := notify.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// SendRaw writes data as a text frame without any encoding
func (c *WSClient) SendRaw(data string) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, []byte(data))
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// Subscribe asks for topic broadcasts and waits for the acknowledgement
func (c *WSClient) Subscribe(topic string, timeout time.Duration) {
	c.t.Helper()
	c.send(notify.MessageTypeSubscribe, notify.TopicPayload{Topic: topic})
	c.ExpectMessage(notify.MessageTypeSubscribed, timeout)
}

// Unsubscribe stops topic broadcasts and waits for the acknowledgement
func (c *WSClient) Unsubscribe(topic string, timeout time.Duration) {
	c.t.Helper()
	c.send(notify.MessageTypeUnsubscribe, notify.TopicPayload{Topic: topic})
	c.ExpectMessage(notify.MessageTypeUnsubscribed, timeout)
}

// SendSubscribe sends a SUBSCRIBE without waiting for a reply
func (c *WSClient) SendSubscribe(topic string) {
	c.t.Helper()
	c.send(notify.MessageTypeSubscribe, notify.TopicPayload{Topic: topic})
}

// ExpectMessage waits for a message of the specified type
func (c *WSClient) ExpectMessage(msgType notify.MessageType, timeout time.Duration) *notify.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectDeviceToken waits for the DEVICE_REGISTERED greeting and returns the token
func (c *WSClient) ExpectDeviceToken(timeout time.Duration) string {
	c.t.Helper()

	msg := c.ExpectMessage(notify.MessageTypeDeviceRegistered, timeout)

	var payload notify.DeviceRegisteredPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode device payload: %v", err)
	}
	return payload.DeviceToken
}

// ExpectNotification waits for and decodes a NOTIFICATION message
func (c *WSClient) ExpectNotification(timeout time.Duration) *notify.NotificationPayload {
	c.t.Helper()

	msg := c.ExpectMessage(notify.MessageTypeNotification, timeout)

	var payload notify.NotificationPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode notification payload: %v", err)
	}
	return &payload
}

// ExpectError waits for and decodes an ERROR message
func (c *WSClient) ExpectError(timeout time.Duration) *notify.ErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(notify.MessageTypeError, timeout)

	var payload notify.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
	}
}

// ExpectClosed waits until the server closes the connection
func (c *WSClient) ExpectClosed(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
		case <-c.errors:
			return
		case <-deadline:
			c.t.Fatalf("timeout waiting for connection to close")
		}
	}
}
