package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update writes the editable account fields. Session tokens are managed
// through UpdateTokens and ClearSession only.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).
		Model(user).
		Select("email", "name", "role", "password_hash", "external_id", "updated_at").
		Updates(user)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (r *userRepository) UpdateAccessToken(ctx context.Context, id uuid.UUID, accessToken string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"access_token": accessToken,
	})
}

func (r *userRepository) UpdateDeviceToken(ctx context.Context, id uuid.UUID, deviceToken string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"device_token": domain.StringPtr(deviceToken),
	})
}

// ClearSession drops the stored token pair and the device token, which
// invalidates every token previously issued to the account.
func (r *userRepository) ClearSession(ctx context.Context, id uuid.UUID) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"access_token":  nil,
		"refresh_token": nil,
		"device_token":  nil,
	})
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
