package notify

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribe   MessageType = "SUBSCRIBE"
	MessageTypeUnsubscribe MessageType = "UNSUBSCRIBE"

	// Server to Client
	MessageTypeDeviceRegistered MessageType = "DEVICE_REGISTERED"
	MessageTypeSubscribed       MessageType = "SUBSCRIBED"
	MessageTypeUnsubscribed     MessageType = "UNSUBSCRIBED"
	MessageTypeNotification     MessageType = "NOTIFICATION"
	MessageTypeError            MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type TopicPayload struct {
	Topic string `json:"topic"`
}

// Server to Client payloads

type DeviceRegisteredPayload struct {
	DeviceToken string `json:"deviceToken"`
}

// Notification is what a device receives. Data values are strings so any
// client can render them without type information.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type NotificationPayload struct {
	Notification
	Topic string `json:"topic,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
