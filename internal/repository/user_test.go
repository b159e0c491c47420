package repository

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "leo", Email: "Leo@Example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	dup := &models.User{Username: "leo", Email: "other@example.com", Password: "hash"}
	assert.True(t, models.IsCode(repo.Create(ctx, dup), models.CodeConflict))

	byName, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, "hash", byName.Password)

	byEmail, err := repo.GetByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", byID.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdateProfileAndAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "leo")

	u.FirstName = "Leo"
	u.LastName = "Tolstoy"
	u.Username = "renamed"
	require.NoError(t, repo.UpdateProfile(ctx, u))

	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, "Leo Tolstoy", got.FullName())

	require.NoError(t, repo.SetAdmin(ctx, u.ID, true))
	admins, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	assert.True(t, models.IsCode(repo.SetAdmin(ctx, 999, true), models.CodeNotFound))

	users, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
