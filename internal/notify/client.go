package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Client is one connected device. Its device token is minted when the
// connection is accepted and is valid until the connection closes.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      uuid.UUID
	deviceToken string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		userID:      userID,
		deviceToken: uuid.NewString(),
	}
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}

func (c *Client) DeviceToken() string {
	return c.deviceToken
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("notification socket closed", slog.String("device", c.deviceToken), slog.Any("error", err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message is not valid JSON")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		var payload TopicPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid topic payload")
			return
		}
		if !ValidTopic(payload.Topic) {
			c.sendError("INVALID_TOPIC", "Topic must match [a-zA-Z0-9-_.~%]+")
			return
		}

		reply := MessageTypeSubscribed
		if msg.Type == MessageTypeSubscribe {
			c.hub.Subscribe(c, payload.Topic)
		} else {
			c.hub.Unsubscribe(c, payload.Topic)
			reply = MessageTypeUnsubscribed
		}
		c.sendMessage(reply, payload)

	default:
		c.sendError("UNKNOWN_TYPE", "Unsupported message type")
	}
}

func (c *Client) sendError(code, message string) {
	c.sendMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

func (c *Client) sendMessage(msgType MessageType, payload interface{}) bool {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		c.hub.logger.Error("failed to build notification message", slog.Any("error", err))
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("failed to marshal notification message", slog.Any("error", err))
		return false
	}
	return c.enqueue(data)
}

// enqueue never blocks; a device that cannot keep up loses the message.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close ends the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
