package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hello = service.NotificationInput{Title: "Hello", Body: "World", Data: map[string]string{"k": "v"}}

func TestNotificationService_SendToUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, env.db)
	require.NoError(t, env.repos.User.UpdateDeviceToken(ctx, user.ID, "device-1"))

	tests := []struct {
		name    string
		userID  uuid.UUID
		token   string
		input   service.NotificationInput
		wantErr error
	}{
		{name: "stored token", userID: user.ID, token: "device-1", input: hello},
		{name: "token mismatch", userID: user.ID, token: "device-2", input: hello, wantErr: domain.ErrValidationFailed},
		{name: "missing token", userID: user.ID, token: "", input: hello, wantErr: domain.ErrValidationFailed},
		{name: "missing title", userID: user.ID, token: "device-1", input: service.NotificationInput{Body: "x"}, wantErr: domain.ErrValidationFailed},
		{name: "unknown user", userID: uuid.New(), token: "device-1", input: hello, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.services.Notification.SendToUser(ctx, tt.userID, tt.token, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.MessageID)
			assert.Equal(t, 1, result.Delivered)
		})
	}

	sent := env.notifier.sentTo("device-1")
	require.Len(t, sent, 1)
	assert.Equal(t, "Hello", sent[0].Title)
	assert.Equal(t, "v", sent[0].Data["k"])
}

func TestNotificationService_SendMulticast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.notifier.reject("gone")

	result, err := env.services.Notification.SendMulticast(ctx, []string{"a", "gone", "b"}, hello)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Responses, 3)
	assert.False(t, result.Responses[1].Delivered())

	_, err = env.services.Notification.SendMulticast(ctx, nil, hello)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestNotificationService_SendTopic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.services.Notification.SendTopic(ctx, "news", hello)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)

	_, err = env.services.Notification.SendTopic(ctx, "bad topic!", hello)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestNotificationService_Simulate(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.services.Notification.Simulate(context.Background(), "device-9", hello)
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.True(t, strings.HasPrefix(result.MessageID, "simulated/messages/"))
	assert.Equal(t, "device-9", result.RequestData.Token)
	assert.Equal(t, "Hello", result.RequestData.Title)
	assert.Empty(t, env.notifier.sentTo("device-9"), "simulation does not deliver")

	_, err = env.services.Notification.Simulate(context.Background(), "", hello)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}
