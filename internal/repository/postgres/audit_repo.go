package postgres

import (
	"context"
	"time"

	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/repository"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *auditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

// List returns entries newest first. With IncludeUser the owning account is
// loaded with its id, email and name only.
func (r *auditLogRepository) List(ctx context.Context, q repository.AuditQuery) ([]*domain.AuditLogEntry, error) {
	query := r.db.WithContext(ctx).Model(&domain.AuditLogEntry{})

	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.IncludeUser {
		query = query.Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "email", "name")
		})
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var entries []*domain.AuditLogEntry
	err := query.Order("created_at DESC").Order("id DESC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&domain.AuditLogEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
