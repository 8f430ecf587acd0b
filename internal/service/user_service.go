package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	audit       *AuditService
	notifier    Notifier
}

func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, audit *AuditService, notifier Notifier) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		audit:       audit,
		notifier:    notifier,
	}
}

// UserDetail is an account together with its profile, if one exists.
type UserDetail struct {
	*domain.User
	Profile *domain.Profile `json:"profile"`
}

// UpdateUserInput holds the account fields to change. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Email *string      `json:"email"`
	Name  *string      `json:"name"`
	Role  *domain.Role `json:"role"`
}

func (i UpdateUserInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&i.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&i.Role, validation.By(func(value interface{}) error {
			if role, ok := value.(*domain.Role); ok && role != nil && !role.IsValid() {
				return errors.New("must be user or admin")
			}
			return nil
		})),
	)
}

func (i UpdateUserInput) fields() []string {
	var out []string
	if i.Email != nil {
		out = append(out, "email")
	}
	if i.Name != nil {
		out = append(out, "name")
	}
	if i.Role != nil {
		out = append(out, "role")
	}
	return out
}

func (s *UserService) List(ctx context.Context, actor *domain.Principal) ([]*domain.User, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionViewAllUsers, "Viewed all users", domain.Metadata{
		"count": len(users),
	})
	return users, nil
}

func (s *UserService) Get(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*UserDetail, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{User: user}
	profile, err := s.profileRepo.GetByUserID(ctx, id)
	switch {
	case err == nil:
		detail.Profile = profile
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionViewUser, fmt.Sprintf("Viewed user profile for %s", id), domain.Metadata{
		"targetUserId": id.String(),
	})
	return detail, nil
}

// Update changes an account. Users may edit themselves; admins may edit
// anyone, and only admins may change a role.
func (s *UserService) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	if !actor.CanActOn(id) {
		return nil, domain.ErrForbidden
	}
	if input.Role != nil {
		if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		trimmed := strings.TrimSpace(*input.Email)
		input.Email = &trimmed
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, *input.Email); err == nil {
			return nil, domain.ErrDuplicateAccount
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	roleChanged := input.Role != nil && *input.Role != user.Role
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Tokens carry the role, so a role change ends the current session.
	if roleChanged {
		if err := s.userRepo.ClearSession(ctx, id); err != nil {
			return nil, fmt.Errorf("end session after role change: %w", err)
		}
		user.AccessToken = nil
		user.RefreshToken = nil
		user.DeviceToken = nil
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionUserUpdate, fmt.Sprintf("Updated user %s", id), domain.Metadata{
		"targetUserId":  id.String(),
		"updatedFields": strings.Join(input.fields(), ","),
	})
	return user, nil
}

// Delete removes an account. Its profile and activity logs go with it
// through the foreign keys.
func (s *UserService) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDeleteUser, fmt.Sprintf("Deleted user %s", id), domain.Metadata{
		"deletedUserId": id.String(),
		"deletedEmail":  user.Email,
	})
	return nil
}

// UpdateDeviceToken stores the push token of the actor's device after a
// test notification to it has been accepted.
func (s *UserService) UpdateDeviceToken(ctx context.Context, actor *domain.Principal, deviceToken string) error {
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		return fmt.Errorf("%w: device token is required", domain.ErrValidationFailed)
	}

	err := s.notifier.Send(deviceToken, notify.Notification{
		Title: "Device registered",
		Body:  "Notifications are enabled for this device.",
		Data:  map[string]string{"type": "device_registered"},
	})
	if err != nil {
		return fmt.Errorf("%w: device token rejected: %v", domain.ErrValidationFailed, err)
	}

	if err := s.userRepo.UpdateDeviceToken(ctx, actor.ID, deviceToken); err != nil {
		return err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionDeviceTokenUpdate, "Updated device token", nil)
	return nil
}
