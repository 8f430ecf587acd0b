package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
)

// UserRepository is the credential store. Lookups that find nothing return
// domain.ErrNotFound and unique-constraint violations return
// domain.ErrDuplicateAccount.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error
	UpdateAccessToken(ctx context.Context, id uuid.UUID, accessToken string) error
	UpdateDeviceToken(ctx context.Context, id uuid.UUID, deviceToken string) error
	ClearSession(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
}

// AuditQuery filters and paginates audit log listings. Zero-valued filters
// are ignored.
type AuditQuery struct {
	UserID      *uuid.UUID
	Action      domain.AuditAction
	Limit       int
	Offset      int
	IncludeUser bool
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, q AuditQuery) ([]*domain.AuditLogEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	GetAll(ctx context.Context) ([]*domain.Video, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	User     UserRepository
	Profile  ProfileRepository
	AuditLog AuditLogRepository
	Video    VideoRepository
}
