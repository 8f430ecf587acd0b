package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/metrics"
	"github.com/ndeks/nextlevel-backend/internal/repository"
)

const (
	DefaultUserLogLimit = 50
	DefaultAllLogLimit  = 100
	MaxLogLimit         = 500
)

// RequestInfo describes the caller of an audited action.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo attaches caller details that Record copies onto every
// entry written with the returned context.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// ListOptions paginates and filters activity log queries. UserID is only
// honoured by ListAll.
type ListOptions struct {
	Limit  int
	Offset int
	UserID *uuid.UUID
	Action domain.AuditAction
}

type AuditService struct {
	repo          repository.AuditLogRepository
	logger        *slog.Logger
	metrics       *metrics.Metrics
	retentionDays int
	now           func() time.Time
}

func NewAuditService(repo repository.AuditLogRepository, logger *slog.Logger, m *metrics.Metrics, retentionDays int) *AuditService {
	return &AuditService{
		repo:          repo,
		logger:        logger,
		metrics:       m,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Record appends an activity log entry. It never fails the caller: storage
// errors are logged and counted only. The write outlives cancellation of
// ctx so that an entry is still attempted when the client has gone away.
func (s *AuditService) Record(ctx context.Context, userID *uuid.UUID, action domain.AuditAction, description string, md domain.Metadata) {
	info := RequestInfoFromContext(ctx)
	entry := &domain.AuditLogEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
	}
	if normalized := md.Normalize(); normalized != nil {
		entry.Metadata = map[string]interface{}(normalized)
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.metrics.AuditWriteFailed()
		s.logger.Warn("failed to record activity",
			slog.String("action", string(action)),
			slog.Any("user_id", userID),
			slog.Any("error", err),
		)
	}
}

// ListForUser returns the entries owned by userID, newest first.
func (s *AuditService) ListForUser(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.AuditLogEntry, error) {
	return s.repo.List(ctx, repository.AuditQuery{
		UserID: &userID,
		Action: opts.Action,
		Limit:  clampLimit(opts.Limit, DefaultUserLogLimit),
		Offset: max(opts.Offset, 0),
	})
}

// ListAll returns entries across every account, newest first, with the
// owning account's id, email and name attached.
func (s *AuditService) ListAll(ctx context.Context, opts ListOptions) ([]*domain.AuditLogEntry, error) {
	return s.repo.List(ctx, repository.AuditQuery{
		UserID:      opts.UserID,
		Action:      opts.Action,
		Limit:       clampLimit(opts.Limit, DefaultAllLogLimit),
		Offset:      max(opts.Offset, 0),
		IncludeUser: true,
	})
}

// PurgeOlderThan deletes entries created strictly before now minus days and
// returns how many were removed. A non-positive days uses the configured
// retention.
func (s *AuditService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = s.retentionDays
	}
	cutoff := s.now().AddDate(0, 0, -days)

	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.AuditPurged(removed)
	return removed, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, MaxLogLimit)
}
