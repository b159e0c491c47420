package service

import (
	"context"
	"fmt"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFeedService(db *gorm.DB) *FeedService {
	return NewFeedService(
		repository.NewPostRepository(db),
		repository.NewGroupRepository(db),
		repository.NewUserRepository(db),
		10,
	)
}

func TestFeedService_ListAllPaginates(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "author")
	for i := 1; i <= 13; i++ {
		testutil.CreatePost(t, db, author, nil, fmt.Sprintf("post %d", i))
	}
	svc := newFeedService(db)
	ctx := context.Background()

	tests := []struct {
		page       string
		wantNumber int
		wantItems  int
	}{
		{"", 1, 10},
		{"1", 1, 10},
		{"2", 2, 3},
		{"abc", 1, 10},
		{"0", 1, 10},
		{"-3", 1, 10},
		{"99", 2, 3},
	}
	for _, tt := range tests {
		t.Run("page="+tt.page, func(t *testing.T) {
			p, err := svc.ListAll(ctx, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Len(t, p.Items, tt.wantItems)
			assert.Equal(t, 2, p.NumPages)
			assert.Equal(t, 13, p.Total)
		})
	}

	first, err := svc.ListAll(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "post 13", first.Items[0].Text)
	assert.True(t, first.HasNext())
}

func TestFeedService_EmptyListingHasOnePage(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newFeedService(db)

	p, err := svc.ListAll(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.NumPages)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
}

func TestFeedService_ListByGroupAndAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	leo := testutil.CreateUser(t, db, "leo")
	anna := testutil.CreateUser(t, db, "anna")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	testutil.CreatePost(t, db, leo, cats, "leo in cats")
	testutil.CreatePost(t, db, anna, nil, "anna outside")
	svc := newFeedService(db)
	ctx := context.Background()

	group, p, err := svc.ListByGroup(ctx, "cats", "")
	require.NoError(t, err)
	assert.Equal(t, cats.ID, group.ID)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "leo in cats", p.Items[0].Text)

	_, _, err = svc.ListByGroup(ctx, "dogs", "")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	author, p, err := svc.ListByAuthor(ctx, "anna", "")
	require.NoError(t, err)
	assert.Equal(t, anna.ID, author.ID)
	require.Len(t, p.Items, 1)

	_, _, err = svc.ListByAuthor(ctx, "nobody", "")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	n, err := svc.CountByAuthor(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFeedService_ListFollowed(t *testing.T) {
	db := testutil.NewTestDB(t)
	reader := testutil.CreateUser(t, db, "reader")
	followed := testutil.CreateUser(t, db, "followed")
	other := testutil.CreateUser(t, db, "other")
	testutil.CreatePost(t, db, followed, nil, "visible")
	testutil.CreatePost(t, db, other, nil, "hidden")
	testutil.CreateFollow(t, db, reader, followed)
	svc := newFeedService(db)
	ctx := context.Background()

	p, err := svc.ListFollowed(ctx, reader.ID, "")
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "visible", p.Items[0].Text)

	p, err = svc.ListFollowed(ctx, other.ID, "")
	require.NoError(t, err)
	assert.Empty(t, p.Items)
}

func TestFeedService_DefaultPageSize(t *testing.T) {
	svc := NewFeedService(&postRepoStub{}, &groupRepoStub{}, nil, 0)
	assert.Equal(t, 10, svc.PageSize())
}
