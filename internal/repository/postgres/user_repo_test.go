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

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name: "successful creation",
			user: &domain.User{
				Email:        "ada@example.com",
				Name:         "Ada",
				PasswordHash: domain.StringPtr("hashedpassword"),
			},
		},
		{
			name: "duplicate email",
			user: &domain.User{
				Email:        "ada@example.com",
				Name:         "Other Ada",
				PasswordHash: domain.StringPtr("hashedpassword2"),
			},
			wantErr: domain.ErrDuplicateAccount,
		},
		{
			name: "external account without password",
			user: &domain.User{
				Email:      "grace@example.com",
				Name:       "Grace",
				ExternalID: domain.StringPtr("google-123"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tt.user.ID)
			assert.Equal(t, domain.RoleUser, tt.user.Role)
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithEmail("lookup@example.com").
		WithExternalID("google-lookup").
		Build(t, db)

	tests := []struct {
		name    string
		lookup  func() (*domain.User, error)
		wantErr error
	}{
		{
			name:   "by id",
			lookup: func() (*domain.User, error) { return repo.GetByID(ctx, user.ID) },
		},
		{
			name:   "by email",
			lookup: func() (*domain.User, error) { return repo.GetByEmail(ctx, "lookup@example.com") },
		},
		{
			name:   "by external id",
			lookup: func() (*domain.User, error) { return repo.GetByExternalID(ctx, "google-lookup") },
		},
		{
			name:    "unknown id",
			lookup:  func() (*domain.User, error) { return repo.GetByID(ctx, uuid.New()) },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown email",
			lookup:  func() (*domain.User, error) { return repo.GetByEmail(ctx, "nobody@example.com") },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "unknown external id",
			lookup:  func() (*domain.User, error) { return repo.GetByExternalID(ctx, "google-missing") },
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, user.Email, got.Email)
		})
	}
}

func TestUserRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)

	first, _ := testutil.NewUserBuilder().Build(t, db)
	second, _ := testutil.NewUserBuilder().Admin().Build(t, db)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	ids := []uuid.UUID{users[0].ID, users[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, db)
	other, _ := testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, db)
	require.NoError(t, repo.UpdateTokens(ctx, user.ID, "access", "refresh"))

	user.Name = "Renamed"
	user.Role = domain.RoleAdmin
	user.AccessToken = nil
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	require.NotNil(t, got.AccessToken, "update must not touch session tokens")
	assert.Equal(t, "access", *got.AccessToken)

	user.Email = other.Email
	assert.ErrorIs(t, repo.Update(ctx, user), domain.ErrDuplicateAccount)

	missing := &domain.User{ID: uuid.New(), Email: "ghost@example.com", Role: domain.RoleUser}
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)
}

func TestUserRepository_SessionTokens(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, db)

	require.NoError(t, repo.UpdateTokens(ctx, user.ID, "access-1", "refresh-1"))
	require.NoError(t, repo.UpdateTokens(ctx, user.ID, "access-2", "refresh-2"))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", *got.AccessToken)
	assert.Equal(t, "refresh-2", *got.RefreshToken)

	require.NoError(t, repo.UpdateAccessToken(ctx, user.ID, "access-3"))
	require.NoError(t, repo.UpdateDeviceToken(ctx, user.ID, "device-1"))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-3", *got.AccessToken)
	assert.Equal(t, "refresh-2", *got.RefreshToken)
	assert.Equal(t, "device-1", *got.DeviceToken)

	require.NoError(t, repo.ClearSession(ctx, user.ID))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AccessToken)
	assert.Nil(t, got.RefreshToken)
	assert.Nil(t, got.DeviceToken)

	assert.ErrorIs(t, repo.UpdateTokens(ctx, uuid.New(), "a", "r"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.ClearSession(ctx, uuid.New()), domain.ErrNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := postgres.NewUserRepository(db)
	profiles := postgres.NewProfileRepository(db)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, db)
	require.NoError(t, profiles.Upsert(ctx, &domain.Profile{UserID: user.ID, Name: "Ada"}))
	testutil.NewAuditEntryBuilder().ForUser(user.ID).Build(t, db)

	require.NoError(t, users.Delete(ctx, user.ID))

	_, err := profiles.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var remaining int64
	require.NoError(t, db.Model(&domain.AuditLogEntry{}).Where("user_id = ?", user.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.ErrorIs(t, users.Delete(ctx, user.ID), domain.ErrNotFound)
}
