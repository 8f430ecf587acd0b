package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"gorm.io/gorm"
)

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *videoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &video, nil
}

func (r *videoRepository) GetAll(ctx context.Context) ([]*domain.Video, error) {
	var videos []*domain.Video
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// Update overwrites every catalog field of an existing video.
func (r *videoRepository) Update(ctx context.Context, video *domain.Video) error {
	result := r.db.WithContext(ctx).
		Model(video).
		Select("*").
		Omit("id", "created_at").
		Updates(video)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Video{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
