package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/gatekeeper/internal/domain/auth"
	"github.com/target/gatekeeper/internal/domain/model"
	apperrors "github.com/target/gatekeeper/internal/errors"
	"github.com/target/gatekeeper/internal/testutil"
)

func TestIdentityRepo_CreateFindListDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		repo := NewIdentityRepoWithTimeProvider(db, NewFixedTimeProvider(now))

		rec, err := repo.Create(ctx, &model.CreateIdentityRequest{
			ID:           "user@example.com",
			PasswordHash: "$2a$10$hash",
			Capabilities: []string{"ROLE_USER"},
		})
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", rec.ID)
		assert.True(t, rec.CreatedAt.Equal(now))

		ident, err := repo.FindByIdentifier(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_USER"}, ident.Capabilities)
		assert.Equal(t, "$2a$10$hash", ident.PasswordHash)

		_, err = repo.FindByIdentifier(ctx, "unknown@example.com")
		assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)

		_, err = repo.Create(ctx, &model.CreateIdentityRequest{ID: "user@example.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		updated, err := repo.SetCapabilities(ctx, "user@example.com", []string{"ROLE_USER", "ROLE_ADMIN"})
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, updated.Capabilities)

		_, err = repo.SetCapabilities(ctx, "missing@example.com", []string{"ROLE_USER"})
		assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)

		list, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		deleted, err := repo.Delete(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestIdentityRepo_CreateValidation(t *testing.T) {
	repo := NewIdentityRepo(nil)

	_, err := repo.Create(context.Background(), nil)
	require.Error(t, err)

	_, err = repo.Create(context.Background(), &model.CreateIdentityRequest{ID: "  "})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestIdentityRepo_GetEmptyID(t *testing.T) {
	repo := NewIdentityRepo(nil)
	_, err := repo.FindByIdentifier(context.Background(), "")
	assert.ErrorIs(t, err, domainauth.ErrIdentityNotFound)
}
