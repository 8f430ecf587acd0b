package service

import (
	"log/slog"

	"github.com/ndeks/nextlevel-backend/internal/config"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	"github.com/ndeks/nextlevel-backend/internal/token"
)

type Services struct {
	Auth         *AuthService
	Audit        *AuditService
	User         *UserService
	Profile      *ProfileService
	Video        *VideoService
	Notification *NotificationService
}

func NewServices(repos *repository.Repositories, codec *token.Codec, notifier Notifier, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Services {
	audit := NewAuditService(repos.AuditLog, logger, m, cfg.AuditRetentionDays)

	return &Services{
		Auth:         NewAuthService(repos.User, codec, audit, m, cfg.BcryptCost),
		Audit:        audit,
		User:         NewUserService(repos.User, repos.Profile, audit, notifier),
		Profile:      NewProfileService(repos.User, repos.Profile, audit, notifier, logger),
		Video:        NewVideoService(repos.Video, audit),
		Notification: NewNotificationService(repos.User, notifier),
	}
}
