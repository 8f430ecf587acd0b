package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/repository"
)

type VideoService struct {
	videoRepo repository.VideoRepository
	audit     *AuditService
}

func NewVideoService(videoRepo repository.VideoRepository, audit *AuditService) *VideoService {
	return &VideoService{
		videoRepo: videoRepo,
		audit:     audit,
	}
}

// VideoInput carries the catalog fields of a video.
type VideoInput struct {
	Title            string `json:"title"`
	Professor        string `json:"professor"`
	Category         string `json:"category"`
	VideoURL         string `json:"videoUrl"`
	PosterURL        string `json:"posterUrl"`
	Description      string `json:"description"`
	SkillLevel       string `json:"skillLevel"`
	Students         int    `json:"students"`
	Languages        string `json:"languages"`
	Captions         bool   `json:"captions"`
	Lectures         int    `json:"lectures"`
	Duration         string `json:"duration"`
	InstructorName   string `json:"instructorName"`
	InstructorRole   string `json:"instructorRole"`
	InstructorAvatar string `json:"instructorAvatar"`
}

func (i VideoInput) apply(v *domain.Video) {
	v.Title = i.Title
	v.Professor = i.Professor
	v.Category = i.Category
	v.VideoURL = i.VideoURL
	v.PosterURL = i.PosterURL
	v.Description = i.Description
	v.SkillLevel = i.SkillLevel
	v.Students = i.Students
	v.Languages = i.Languages
	v.Captions = i.Captions
	v.Lectures = i.Lectures
	v.Duration = i.Duration
	v.InstructorName = i.InstructorName
	v.InstructorRole = i.InstructorRole
	v.InstructorAvatar = i.InstructorAvatar
}

func (s *VideoService) List(ctx context.Context) ([]*domain.Video, error) {
	return s.videoRepo.GetAll(ctx)
}

func (s *VideoService) Get(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	return s.videoRepo.GetByID(ctx, id)
}

func (s *VideoService) Create(ctx context.Context, actor *domain.Principal, input VideoInput) (*domain.Video, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	video := &domain.Video{}
	input.apply(video)
	if err := video.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionVideoCreate, fmt.Sprintf("Created video %s", video.ID), domain.Metadata{
		"videoId": video.ID.String(),
		"title":   video.Title,
	})
	return video, nil
}

func (s *VideoService) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input VideoInput) (*domain.Video, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input.apply(video)
	if err := video.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionVideoUpdate, fmt.Sprintf("Updated video %s", id), domain.Metadata{
		"videoId": id.String(),
	})
	return video, nil
}

func (s *VideoService) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.videoRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, &actor.ID, domain.ActionVideoDelete, fmt.Sprintf("Deleted video %s", id), domain.Metadata{
		"videoId": id.String(),
	})
	return nil
}
