package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/notify"
	"github.com/ndeks/nextlevel-backend/internal/repository"
)

// ProfileUpdatesTopic receives a broadcast after a profile is replaced.
const ProfileUpdatesTopic = "profile-updates"

type ProfileService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	audit       *AuditService
	notifier    Notifier
	logger      *slog.Logger
}

func NewProfileService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, audit *AuditService, notifier Notifier, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		audit:       audit,
		notifier:    notifier,
		logger:      logger,
	}
}

// ProfileInput carries the editable profile fields using the wire names.
type ProfileInput struct {
	Name          string `json:"name"`
	LastName      string `json:"lastName"`
	Avatar        string `json:"avatar"`
	Address       string `json:"address"`
	PhoneNumber   string `json:"phoneNumber"`
	Provinsi      string `json:"provinsi"`
	KotaKabupaten string `json:"kotaKabupaten"`
	Kecamatan     string `json:"kecamatan"`
	GithubLink    string `json:"githubLink"`
}

func (i ProfileInput) profile() *domain.Profile {
	return &domain.Profile{
		Name:        i.Name,
		LastName:    i.LastName,
		Avatar:      i.Avatar,
		Address:     i.Address,
		PhoneNumber: i.PhoneNumber,
		Province:    i.Provinsi,
		Regency:     i.KotaKabupaten,
		District:    i.Kecamatan,
		GithubLink:  i.GithubLink,
	}
}

// Upsert creates or overwrites the actor's own profile.
func (s *ProfileService) Upsert(ctx context.Context, actor *domain.Principal, input ProfileInput) (*domain.Profile, error) {
	profile := input.profile()
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	if _, err := s.userRepo.GetByID(ctx, actor.ID); err != nil {
		return nil, err
	}

	updatedFields := strings.Join(profile.FilledFields(), ",")
	profile.UserID = actor.ID
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionProfileUpdate, "Updated user profile", domain.Metadata{
		"updatedFields": updatedFields,
	})
	return profile, nil
}

// Get returns the profile of userID. Any signed-in user may view profiles.
func (s *ProfileService) Get(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionViewProfile, fmt.Sprintf("Viewed profile for user %s", userID), domain.Metadata{
		"targetUserId": userID.String(),
	})
	return profile, nil
}

// UpdateByID replaces every field of an existing profile. The owner or an
// admin may do this. Subscribers of ProfileUpdatesTopic are told afterwards;
// a failed broadcast does not fail the update.
func (s *ProfileService) UpdateByID(ctx context.Context, actor *domain.Principal, userID uuid.UUID, input ProfileInput) (*domain.Profile, error) {
	if !actor.CanActOn(userID) {
		return nil, domain.ErrForbidden
	}

	replacement := input.profile()
	if err := replacement.ValidateComplete(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Apply(replacement)
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	updatedFields := strings.Join(replacement.FilledFields(), ",")
	s.audit.Record(ctx, &actor.ID, domain.ActionProfileUpdateByID, fmt.Sprintf("Updated profile for user %s", userID), domain.Metadata{
		"targetUserId":  userID.String(),
		"updatedFields": updatedFields,
	})

	s.broadcastUpdate(actor.ID, userID, updatedFields)
	return profile, nil
}

func (s *ProfileService) broadcastUpdate(actorID, userID uuid.UUID, updatedFields string) {
	if s.notifier == nil {
		return
	}

	_, err := s.notifier.SendTopic(ProfileUpdatesTopic, notify.Notification{
		Title: "Profile Updated",
		Body:  "Your profile has been successfully updated.",
		Data: map[string]string{
			"userId":        userID.String(),
			"updatedBy":     actorID.String(),
			"updatedFields": updatedFields,
		},
	})
	if err != nil {
		s.logger.Warn("profile update broadcast failed",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	}
}
