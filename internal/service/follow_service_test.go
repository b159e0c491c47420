package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_FollowAndUnfollow(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	svc := NewFollowService(repository.NewFollowRepository(db), repository.NewUserRepository(db))
	ctx := context.Background()

	following, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	outcome, err := svc.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, FollowCreated, outcome)

	outcome, err = svc.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, FollowAlreadyExists, outcome)

	following, err = svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	counts, err := svc.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowCounts{Followers: 1, Following: 0}, counts)

	authors, err := svc.ListFollowedAuthors(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "bob", authors[0].Username)

	removed, err := svc.Unfollow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Unfollow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, removed)

	following, err = svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowService_SelfFollowCreatesNoEdge(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := NewFollowService(repository.NewFollowRepository(db), repository.NewUserRepository(db))

	outcome, err := svc.Follow(context.Background(), alice.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, FollowSelfRejected, outcome)

	var n int64
	db.Model(&models.Follow{}).Count(&n)
	assert.Zero(t, n)

	following, err := svc.IsFollowing(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowService_Errors(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := NewFollowService(repository.NewFollowRepository(db), repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Follow(ctx, alice.ID, "ghost")
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.Follow(ctx, 0, "alice")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Unfollow(ctx, alice.ID, "ghost")
	assertCode(t, err, models.CodeNotFound)
}

func TestFollowOutcome_String(t *testing.T) {
	assert.Equal(t, "created", FollowCreated.String())
	assert.Equal(t, "already_exists", FollowAlreadyExists.String())
	assert.Equal(t, "self_rejected", FollowSelfRejected.String())
	assert.Equal(t, "unknown", FollowOutcome(99).String())
}
