package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var profileColumns = []string{
	"name", "last_name", "avatar", "address", "phone_number",
	"province", "regency", "district", "github_link", "updated_at",
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &profile, nil
}

// Upsert creates the profile for profile.UserID or overwrites the existing
// one. On return profile holds the stored row.
func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).
		Create(profile).Error
	if err != nil {
		return translateError(err)
	}

	stored, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}
	*profile = *stored
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", profile.UserID).
		Select(profileColumns).
		Updates(profile)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
