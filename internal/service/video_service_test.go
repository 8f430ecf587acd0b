package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/service"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoInput(title string) service.VideoInput {
	return service.VideoInput{
		Title:            title,
		Professor:        "Dr. Ada",
		Category:         "Programming",
		VideoURL:         "https://videos.example.com/intro",
		PosterURL:        "https://images.example.com/poster.png",
		Description:      "An introduction.",
		SkillLevel:       "Beginner",
		Students:         10,
		Languages:        "English",
		Captions:         true,
		Lectures:         5,
		Duration:         "1h",
		InstructorName:   "Ada",
		InstructorRole:   "Lecturer",
		InstructorAvatar: "https://images.example.com/ada.png",
	}
}

func TestVideoService_AdminLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, _ := testutil.NewUserBuilder().Admin().Build(t, env.db)
	actor := principalOf(admin)

	video, err := env.services.Video.Create(ctx, actor, videoInput("Go Basics"))
	require.NoError(t, err)

	got, err := env.services.Video.Get(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", got.Title)

	updated, err := env.services.Video.Update(ctx, actor, video.ID, videoInput("Go Advanced"))
	require.NoError(t, err)
	assert.Equal(t, "Go Advanced", updated.Title)

	videos, err := env.services.Video.List(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 1)

	require.NoError(t, env.services.Video.Delete(ctx, actor, video.ID))
	_, err = env.services.Video.Get(ctx, video.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Len(t, env.auditEntries(t, domain.ActionVideoCreate), 1)
	assert.Len(t, env.auditEntries(t, domain.ActionVideoUpdate), 1)
	assert.Len(t, env.auditEntries(t, domain.ActionVideoDelete), 1)
}

func TestVideoService_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, _ := testutil.NewUserBuilder().Admin().Build(t, env.db)
	user, _ := testutil.NewUserBuilder().Build(t, env.db)

	invalid := videoInput("Broken")
	invalid.VideoURL = "not a url"

	existing, err := env.services.Video.Create(ctx, principalOf(admin), videoInput("Existing"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "create as user",
			run: func() error {
				_, err := env.services.Video.Create(ctx, principalOf(user), videoInput("Nope"))
				return err
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name: "create invalid",
			run: func() error {
				_, err := env.services.Video.Create(ctx, principalOf(admin), invalid)
				return err
			},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name: "update as user",
			run: func() error {
				_, err := env.services.Video.Update(ctx, principalOf(user), existing.ID, videoInput("Nope"))
				return err
			},
			wantErr: domain.ErrForbidden,
		},
		{
			name: "update missing",
			run: func() error {
				_, err := env.services.Video.Update(ctx, principalOf(admin), uuid.New(), videoInput("Nope"))
				return err
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "delete as user",
			run:     func() error { return env.services.Video.Delete(ctx, principalOf(user), existing.ID) },
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "delete missing",
			run:     func() error { return env.services.Video.Delete(ctx, principalOf(admin), uuid.New()) },
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}
}
