package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/repository"
)

// Notifier delivers push notifications. *notify.Hub implements it.
type Notifier interface {
	Send(deviceToken string, n notify.Notification) error
	SendMulticast(deviceTokens []string, n notify.Notification) ([]notify.Result, int, error)
	SendTopic(topic string, n notify.Notification) (int, error)
}

type NotificationInput struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func (i NotificationInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, validation.Required),
		validation.Field(&i.Body, validation.Required),
	)
}

func (i NotificationInput) notification() notify.Notification {
	return notify.Notification{Title: i.Title, Body: i.Body, Data: i.Data}
}

type SendResult struct {
	MessageID string `json:"messageId"`
	Delivered int    `json:"delivered"`
}

type MulticastResult struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Responses    []notify.Result `json:"responses"`
}

type SimulatedResult struct {
	MessageID   string            `json:"messageId"`
	Simulated   bool              `json:"simulated"`
	RequestData SimulationRequest `json:"requestData"`
}

type SimulationRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type NotificationService struct {
	userRepo repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewNotificationService(userRepo repository.UserRepository, notifier Notifier) *NotificationService {
	return &NotificationService{
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// SendToUser delivers to deviceToken only when it is the token stored for
// userID.
func (s *NotificationService) SendToUser(ctx context.Context, userID uuid.UUID, deviceToken string, input NotificationInput) (*SendResult, error) {
	if deviceToken == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrValidationFailed)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeviceToken == nil || *user.DeviceToken != deviceToken {
		return nil, fmt.Errorf("%w: device token does not match the user's stored token", domain.ErrValidationFailed)
	}

	if err := s.notifier.Send(deviceToken, input.notification()); err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}
	return &SendResult{MessageID: uuid.NewString(), Delivered: 1}, nil
}

func (s *NotificationService) SendMulticast(ctx context.Context, deviceTokens []string, input NotificationInput) (*MulticastResult, error) {
	if len(deviceTokens) == 0 {
		return nil, fmt.Errorf("%w: tokens are required", domain.ErrValidationFailed)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	results, delivered, err := s.notifier.SendMulticast(deviceTokens, input.notification())
	if err != nil {
		return nil, fmt.Errorf("send multicast: %w", err)
	}
	return &MulticastResult{
		SuccessCount: delivered,
		FailureCount: len(results) - delivered,
		Responses:    results,
	}, nil
}

func (s *NotificationService) SendTopic(ctx context.Context, topic string, input NotificationInput) (*SendResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	delivered, err := s.notifier.SendTopic(topic, input.notification())
	if err != nil {
		if errors.Is(err, notify.ErrInvalidTopic) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("send topic: %w", err)
	}
	return &SendResult{MessageID: uuid.NewString(), Delivered: delivered}, nil
}

// Simulate echoes a notification request without delivering it.
func (s *NotificationService) Simulate(ctx context.Context, deviceToken string, input NotificationInput) (*SimulatedResult, error) {
	if deviceToken == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrValidationFailed)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	return &SimulatedResult{
		MessageID: fmt.Sprintf("simulated/messages/%d", s.now().UnixMilli()),
		Simulated: true,
		RequestData: SimulationRequest{
			Token: deviceToken,
			Title: input.Title,
			Body:  input.Body,
			Data:  input.Data,
		},
	}, nil
}
