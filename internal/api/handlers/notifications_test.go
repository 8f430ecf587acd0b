package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/api/handlers"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

// connectDevice opens a notification socket for the user and registers the
// device token it is given.
func connectDevice(t *testing.T, ts *testutil.TestServer, auth *testutil.AuthResponse) (*testutil.WSClient, string) {
	t.Helper()

	client := testutil.NewWSClient(t, ts.WebSocketURL(auth.Token))
	deviceToken := client.ExpectDeviceToken(wsTimeout)
	require.NotEmpty(t, deviceToken)

	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/users/device-token"), map[string]string{
		"deviceToken": deviceToken,
	}, auth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)

	// The registration check itself reaches the device.
	n := client.ExpectNotification(wsTimeout)
	assert.Equal(t, "device_registered", n.Data["type"])

	return client, deviceToken
}

func TestWebSocket_RejectsBadToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.DB)
	first := testutil.Login(t, ts, user.Email, password)
	testutil.Login(t, ts, user.Email, password)

	for name, token := range map[string]string{
		"missing":   "",
		"garbage":   "garbage",
		"displaced": first.Token,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := testutil.DialWS(ts.WebSocketURL(token))
			assert.Error(t, err)
		})
	}
}

func TestNotifications_SendToDevice(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, adminAuth := testutil.NewUserBuilder().Admin().BuildAndAuthenticate(t, ts)

	client, deviceToken := connectDevice(t, ts, auth)

	stored, err := ts.Repos.User.GetByID(t.Context(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeviceToken)
	assert.Equal(t, deviceToken, *stored.DeviceToken)

	req := handlers.SendRequest{
		NotificationInput: service.NotificationInput{
			Title: "New lesson",
			Body:  "Chapter 2 is out.",
			Data:  map[string]string{"videoId": "42"},
		},
		Token:  deviceToken,
		UserID: user.ID,
	}

	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send"), req, auth.Token)
	testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "FORBIDDEN")

	var sent struct {
		Message   string `json:"message"`
		MessageID string `json:"messageId"`
		Delivered int    `json:"delivered"`
	}
	resp = testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send"), req, adminAuth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &sent)
	assert.Equal(t, "Notification sent successfully", sent.Message)
	assert.NotEmpty(t, sent.MessageID)
	assert.Equal(t, 1, sent.Delivered)

	n := client.ExpectNotification(wsTimeout)
	assert.Equal(t, "New lesson", n.Title)
	assert.Equal(t, "Chapter 2 is out.", n.Body)
	assert.Equal(t, "42", n.Data["videoId"])

	t.Run("token of another device", func(t *testing.T) {
		bad := req
		bad.Token = "someone-elses-device"
		resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send"), bad, adminAuth.Token)
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("missing user", func(t *testing.T) {
		bad := req
		bad.UserID = uuid.Nil
		resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send"), bad, adminAuth.Token)
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("missing title", func(t *testing.T) {
		bad := req
		bad.Title = ""
		resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send"), bad, adminAuth.Token)
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
	})
}

func TestNotifications_Multicast(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, adminAuth := testutil.NewUserBuilder().Admin().BuildAndAuthenticate(t, ts)

	client, deviceToken := connectDevice(t, ts, auth)

	var result struct {
		SuccessCount int `json:"successCount"`
		FailureCount int `json:"failureCount"`
		Responses    []struct {
			DeviceToken string `json:"deviceToken"`
			Error       string `json:"error"`
		} `json:"responses"`
	}
	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send-multicast"), handlers.MulticastRequest{
		NotificationInput: service.NotificationInput{Title: "Hi", Body: "Everyone"},
		Tokens:            []string{deviceToken, "gone"},
	}, adminAuth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &result)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Responses, 2)
	assert.Empty(t, result.Responses[0].Error)
	assert.Equal(t, "gone", result.Responses[1].DeviceToken)
	assert.NotEmpty(t, result.Responses[1].Error)

	assert.Equal(t, "Hi", client.ExpectNotification(wsTimeout).Title)

	resp = testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send-multicast"), handlers.MulticastRequest{
		NotificationInput: service.NotificationInput{Title: "Hi", Body: "Everyone"},
	}, adminAuth.Token)
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestNotifications_Topic(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, adminAuth := testutil.NewUserBuilder().Admin().BuildAndAuthenticate(t, ts)

	client := testutil.NewWSClient(t, ts.WebSocketURL(auth.Token))
	client.ExpectDeviceToken(wsTimeout)
	client.Subscribe("announcements", wsTimeout)

	var sent struct {
		Delivered int `json:"delivered"`
	}
	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send-topic"), handlers.TopicRequest{
		NotificationInput: service.NotificationInput{Title: "Maintenance", Body: "Tonight at 22:00"},
		Topic:             "announcements",
	}, adminAuth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &sent)
	assert.Equal(t, 1, sent.Delivered)

	n := client.ExpectNotification(wsTimeout)
	assert.Equal(t, "Maintenance", n.Title)
	assert.Equal(t, "announcements", n.Topic)

	resp = testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/send-topic"), handlers.TopicRequest{
		NotificationInput: service.NotificationInput{Title: "Maintenance", Body: "Tonight"},
		Topic:             "bad topic!",
	}, adminAuth.Token)
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestNotifications_ProfileUpdateBroadcast(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	client := testutil.NewWSClient(t, ts.WebSocketURL(auth.Token))
	client.ExpectDeviceToken(wsTimeout)
	client.Subscribe(service.ProfileUpdatesTopic, wsTimeout)

	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/users/profile"), map[string]string{"name": "Ada"}, auth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)

	resp = testutil.DoJSON(t, http.MethodPut, ts.URL("/users/profile/"+user.ID.String()), map[string]string{
		"name":          "Ada",
		"lastName":      "Lovelace",
		"avatar":        "https://images.example.com/ada.png",
		"address":       "Jl. Merdeka 1",
		"phoneNumber":   "08123456789",
		"provinsi":      "Jawa Barat",
		"kotaKabupaten": "Bandung",
		"kecamatan":     "Coblong",
		"githubLink":    "https://github.com/ada",
	}, auth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)

	n := client.ExpectNotification(wsTimeout)
	assert.Equal(t, "Profile Updated", n.Title)
	assert.Equal(t, user.ID.String(), n.Data["userId"])
	assert.Equal(t, service.ProfileUpdatesTopic, n.Topic)
}

func TestNotifications_Simulate(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	var result struct {
		Message     string `json:"message"`
		MessageID   string `json:"messageId"`
		Simulated   bool   `json:"simulated"`
		RequestData struct {
			Token string `json:"token"`
			Title string `json:"title"`
		} `json:"requestData"`
	}
	resp := testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/simulate"), map[string]interface{}{
		"token": "any-device",
		"title": "Test",
		"body":  "Only a dry run",
	}, auth.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &result)

	assert.True(t, result.Simulated)
	assert.Contains(t, result.MessageID, "simulated/messages/")
	assert.Equal(t, "any-device", result.RequestData.Token)
	assert.Equal(t, "Test", result.RequestData.Title)

	resp = testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/simulate"), map[string]string{"title": "Test", "body": "x"}, auth.Token)
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "VALIDATION_FAILED")

	resp = testutil.DoJSON(t, http.MethodPost, ts.URL("/notifications/simulate"), map[string]string{"token": "t", "title": "Test", "body": "x"}, "")
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "MISSING_TOKEN")
}
