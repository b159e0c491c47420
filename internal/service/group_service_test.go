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

func TestGroupService_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewGroupService(repository.NewGroupRepository(db))
	ctx := context.Background()

	g, err := svc.Create(ctx, GroupInput{Title: " Cats ", Slug: "cats", Description: "meow"})
	require.NoError(t, err)
	assert.Equal(t, "Cats", g.Title)

	_, err = svc.Create(ctx, GroupInput{Title: "Cats again", Slug: "cats"})
	assertCode(t, err, models.CodeConflict)

	_, err = svc.Create(ctx, GroupInput{Title: "Bad", Slug: "bad slug"})
	assertValidationError(t, err)

	_, err = svc.Create(ctx, GroupInput{Title: "", Slug: "empty"})
	assertValidationError(t, err)

	updated, err := svc.Update(ctx, g.ID, GroupInput{Title: "Felines", Slug: "felines"})
	require.NoError(t, err)
	assert.Equal(t, "felines", updated.Slug)

	_, err = svc.GetBySlug(ctx, "cats")
	assertCode(t, err, models.CodeNotFound)

	require.NoError(t, svc.DeleteBySlug(ctx, "felines"))
	groups, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
