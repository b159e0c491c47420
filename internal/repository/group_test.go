package repository

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	g := &models.Group{Title: "Cats", Slug: "cats", Description: "All about cats"}
	require.NoError(t, repo.Create(ctx, g))

	dup := &models.Group{Title: "Other cats", Slug: "cats"}
	assert.True(t, models.IsCode(repo.Create(ctx, dup), models.CodeConflict))

	got, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", got.Title)

	_, err = repo.GetBySlug(ctx, "dogs")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	got.Title = "Felines"
	require.NoError(t, repo.Update(ctx, got))
	byID, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Felines", byID.Title)
}

func TestGroupRepository_ListSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()
	testutil.CreateGroup(t, db, "Dogs", "dogs")
	testutil.CreateGroup(t, db, "Cats", "cats")

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cats", all[0].Title)

	found, err := repo.List(ctx, "dog")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "dogs", found[0].Slug)
}

func TestGroupRepository_DeleteDetachesPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, author, group, "in a group")

	require.NoError(t, repo.Delete(ctx, group.ID))

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.GroupID)

	assert.True(t, models.IsCode(repo.Delete(ctx, group.ID), models.CodeNotFound))
}
