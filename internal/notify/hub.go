// Package notify delivers push notifications to connected devices over
// websockets. A device is addressed by the token it receives on connect, and
// may subscribe to named topics for broadcasts.
package notify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"sync"

	"github.com/ndeks/nextlevel-backend/internal/metrics"
)

var (
	ErrUnknownDevice = errors.New("device is not connected")
	ErrDeviceBusy    = errors.New("device is not accepting messages")
	ErrInvalidTopic  = errors.New("invalid topic name")
)

var topicPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.~%]+$`)

// ValidTopic reports whether name can be used as a topic.
func ValidTopic(name string) bool {
	return topicPattern.MatchString(name)
}

// Result is the outcome of one delivery in a multicast.
type Result struct {
	DeviceToken string `json:"deviceToken"`
	Error       string `json:"error,omitempty"`
}

func (r Result) Delivered() bool {
	return r.Error == ""
}

type Hub struct {
	clients    map[*Client]bool
	devices    map[string]*Client
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		devices:    make(map[string]*Client),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
				h.metrics.ClientDisconnected()
			}
			h.clients = make(map[*Client]bool)
			h.devices = make(map[string]*Client)
			h.topics = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.devices[client.deviceToken] = client
			h.mu.Unlock()

			h.metrics.ClientConnected()
			client.sendMessage(MessageTypeDeviceRegistered, DeviceRegisteredPayload{DeviceToken: client.deviceToken})
			h.logger.Debug("device connected", slog.String("user_id", client.userID.String()), slog.String("device", client.deviceToken))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.devices, client.deviceToken)
				for topic, members := range h.topics {
					delete(members, client)
					if len(members) == 0 {
						delete(h.topics, topic)
					}
				}
				client.Close()
				h.metrics.ClientDisconnected()
			}
			h.mu.Unlock()
		}
	}
}

// Stop disconnects every device and blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]bool)
		h.topics[topic] = members
	}
	members[client] = true
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.topics[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

// IsConnected reports whether deviceToken belongs to a live connection.
func (h *Hub) IsConnected(deviceToken string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.devices[deviceToken]
	return ok
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send delivers n to a single device.
func (h *Hub) Send(deviceToken string, n Notification) error {
	data, err := encodeNotification(n, "")
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.devices[deviceToken]
	h.mu.RUnlock()

	err = deliver(client, ok, data)
	h.metrics.NotificationSent("device", err == nil)
	return err
}

// SendMulticast delivers n to every listed device and reports per-device
// results in input order along with the number delivered.
func (h *Hub) SendMulticast(deviceTokens []string, n Notification) ([]Result, int, error) {
	data, err := encodeNotification(n, "")
	if err != nil {
		return nil, 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make([]Result, 0, len(deviceTokens))
	delivered := 0
	for _, token := range deviceTokens {
		client, ok := h.devices[token]
		result := Result{DeviceToken: token}
		if err := deliver(client, ok, data); err != nil {
			result.Error = err.Error()
		} else {
			delivered++
		}
		results = append(results, result)
	}

	h.metrics.NotificationSent("multicast", delivered > 0)
	return results, delivered, nil
}

// SendTopic broadcasts n to every subscriber of topic and returns how many
// devices accepted it. A topic without subscribers is not an error.
func (h *Hub) SendTopic(topic string, n Notification) (int, error) {
	if !ValidTopic(topic) {
		return 0, ErrInvalidTopic
	}
	data, err := encodeNotification(n, topic)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.topics[topic] {
		if client.enqueue(data) {
			delivered++
		}
	}

	h.metrics.NotificationSent("topic", true)
	return delivered, nil
}

func deliver(client *Client, ok bool, data []byte) error {
	if !ok {
		return ErrUnknownDevice
	}
	if !client.enqueue(data) {
		return ErrDeviceBusy
	}
	return nil
}

func encodeNotification(n Notification, topic string) ([]byte, error) {
	msg, err := NewMessage(MessageTypeNotification, NotificationPayload{Notification: n, Topic: topic})
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
