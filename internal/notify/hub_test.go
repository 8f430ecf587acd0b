package notify_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = 2 * time.Second

func newHubServer(t *testing.T) (*notify.Hub, string) {
	t.Helper()

	hub := notify.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	go hub.Run()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := notify.NewClient(hub, conn, uuid.New())
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestHub_SendToDevice(t *testing.T) {
	hub, url := newHubServer(t)

	client := testutil.NewWSClient(t, url)
	token := client.ExpectDeviceToken(wait)
	require.NotEmpty(t, token)
	assert.True(t, hub.IsConnected(token))

	err := hub.Send(token, notify.Notification{
		Title: "Hello",
		Body:  "World",
		Data:  map[string]string{"type": "test"},
	})
	require.NoError(t, err)

	payload := client.ExpectNotification(wait)
	assert.Equal(t, "Hello", payload.Title)
	assert.Equal(t, "World", payload.Body)
	assert.Equal(t, "test", payload.Data["type"])
	assert.Empty(t, payload.Topic)
}

func TestHub_SendToUnknownDevice(t *testing.T) {
	hub, _ := newHubServer(t)

	err := hub.Send("missing", notify.Notification{Title: "x"})
	assert.ErrorIs(t, err, notify.ErrUnknownDevice)
}

func TestHub_SendMulticast(t *testing.T) {
	hub, url := newHubServer(t)

	first := testutil.NewWSClient(t, url)
	second := testutil.NewWSClient(t, url)
	firstToken := first.ExpectDeviceToken(wait)
	secondToken := second.ExpectDeviceToken(wait)

	results, delivered, err := hub.SendMulticast(
		[]string{firstToken, "missing", secondToken},
		notify.Notification{Title: "Batch"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	require.Len(t, results, 3)
	assert.True(t, results[0].Delivered())
	assert.False(t, results[1].Delivered())
	assert.Equal(t, "missing", results[1].DeviceToken)
	assert.True(t, results[2].Delivered())

	assert.Equal(t, "Batch", first.ExpectNotification(wait).Title)
	assert.Equal(t, "Batch", second.ExpectNotification(wait).Title)
}

func TestHub_TopicSubscription(t *testing.T) {
	hub, url := newHubServer(t)

	subscriber := testutil.NewWSClient(t, url)
	bystander := testutil.NewWSClient(t, url)
	subscriber.ExpectDeviceToken(wait)
	bystander.ExpectDeviceToken(wait)

	subscriber.Subscribe("profile-updates", wait)

	delivered, err := hub.SendTopic("profile-updates", notify.Notification{Title: "Profile Updated"})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	payload := subscriber.ExpectNotification(wait)
	assert.Equal(t, "profile-updates", payload.Topic)
	bystander.ExpectNoMessage(100 * time.Millisecond)

	subscriber.Unsubscribe("profile-updates", wait)
	delivered, err = hub.SendTopic("profile-updates", notify.Notification{Title: "Again"})
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}

func TestHub_TopicValidation(t *testing.T) {
	hub, url := newHubServer(t)

	_, err := hub.SendTopic("bad topic!", notify.Notification{Title: "x"})
	assert.ErrorIs(t, err, notify.ErrInvalidTopic)

	client := testutil.NewWSClient(t, url)
	client.ExpectDeviceToken(wait)
	client.SendSubscribe("bad topic!")
	assert.Equal(t, "INVALID_TOPIC", client.ExpectError(wait).Code)

	client.SendRaw("{not json")
	assert.Equal(t, "INVALID_MESSAGE", client.ExpectError(wait).Code)
}

func TestHub_DisconnectForgetsDevice(t *testing.T) {
	hub, url := newHubServer(t)

	client := testutil.NewWSClient(t, url)
	token := client.ExpectDeviceToken(wait)
	client.Subscribe("news", wait)
	client.Close()

	assert.Eventually(t, func() bool {
		return !hub.IsConnected(token) && hub.ClientCount() == 0
	}, wait, 10*time.Millisecond)

	delivered, err := hub.SendTopic("news", notify.Notification{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, url := newHubServer(t)

	client := testutil.NewWSClient(t, url)
	client.ExpectDeviceToken(wait)

	hub.Stop()
	client.ExpectClosed(wait)
	assert.Equal(t, 0, hub.ClientCount())

	// A second stop is a no-op.
	hub.Stop()
}

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{"profile-updates", true},
		{"news_2026.~%", true},
		{"", false},
		{"has space", false},
		{"slash/topic", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, notify.ValidTopic(tt.topic))
		})
	}
}
