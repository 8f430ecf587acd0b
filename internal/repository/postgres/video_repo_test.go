package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/repository/postgres"
	"github.com/ndeks/nextlevel-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewVideoRepository(db)
	ctx := context.Background()

	video := testutil.NewVideo("Go Basics")
	require.NoError(t, repo.Create(ctx, video))
	require.NotEqual(t, uuid.Nil, video.ID)

	got, err := repo.GetByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", got.Title)
	assert.True(t, got.Captions)

	got.Title = "Go Intermediate"
	got.Captions = false
	got.Students = 0
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Intermediate", updated.Title)
	assert.False(t, updated.Captions, "zero values must be written")
	assert.Zero(t, updated.Students)

	require.NoError(t, repo.Create(ctx, testutil.NewVideo("Rust Basics")))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, video.ID))
	_, err = repo.GetByID(ctx, video.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, video.ID), domain.ErrNotFound)
	missing := testutil.NewVideo("Ghost")
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)
}
