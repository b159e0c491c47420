package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		created := false
		repo := &postRepoStub{createFn: func(context.Context, *models.Post) error {
			created = true
			return nil
		}}
		svc := NewPostService(repo, &groupRepoStub{}, nil)
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: 1, Text: "   "})
		assertValidationError(t, err)
		assert.False(t, created)
	})

	t.Run("text too long", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(&postRepoStub{}, &groupRepoStub{}, nil)
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: 1, Text: strings.Repeat("x", 50001)})
		assertValidationError(t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		t.Parallel()
		groups := &groupRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Group, error) {
			return nil, models.NewNotFoundError("Group", id)
		}}
		svc := NewPostService(&postRepoStub{}, groups, nil)
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: 1, Text: "hi", GroupID: uintPtr(42)})
		assertValidationError(t, err)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(&postRepoStub{}, &groupRepoStub{}, nil)
		_, err := svc.CreatePost(ctx, CreatePostInput{Text: "hi"})
		assertCode(t, err, models.CodeUnauthorized)
	})

	t.Run("image without store", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(&postRepoStub{}, &groupRepoStub{}, nil)
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: 1, Text: "hi", Image: &UploadedImage{Content: []byte("x")}})
		assertValidationError(t, err)
	})
}

func TestPostService_CreatePost_RemovesImageWhenInsertFails(t *testing.T) {
	images := &imageStoreStub{}
	repo := &postRepoStub{createFn: func(context.Context, *models.Post) error {
		return models.NewInternalError(errors.New("db down"))
	}}
	svc := NewPostService(repo, &groupRepoStub{}, images)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Text:     "with picture",
		Image:    &UploadedImage{Content: []byte("img")},
	})
	assertCode(t, err, models.CodeInternal)
	assert.Equal(t, []string{"posts/stub.jpg"}, images.removed)
}

func TestPostService_CreatePost_KeepsSharedImageWhenInsertFails(t *testing.T) {
	images := &imageStoreStub{}
	repo := &postRepoStub{
		createFn: func(context.Context, *models.Post) error {
			return models.NewInternalError(errors.New("db down"))
		},
		countFn: func(_ context.Context, f repository.PostFilter) (int64, error) {
			assert.Equal(t, "posts/stub.jpg", f.Image)
			return 1, nil
		},
	}
	svc := NewPostService(repo, &groupRepoStub{}, images)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Text:     "same picture as an older post",
		Image:    &UploadedImage{Content: []byte("img")},
	})
	assertCode(t, err, models.CodeInternal)
	assert.Empty(t, images.removed)
}

func TestPostService_UpdatePost_ReleasesReplacedImage(t *testing.T) {
	tests := []struct {
		name        string
		refs        int64
		wantRemoved []string
	}{
		{"unreferenced", 0, []string{"posts/old.jpg"}},
		{"shared with another post", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &imageStoreStub{saveFn: func(context.Context, UploadedImage) (string, error) {
				return "posts/new.jpg", nil
			}}
			repo := &postRepoStub{
				getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
					return &models.Post{ID: id, AuthorID: 7, Text: "t", Image: "posts/old.jpg"}, nil
				},
				countFn: func(_ context.Context, f repository.PostFilter) (int64, error) {
					assert.Equal(t, "posts/old.jpg", f.Image)
					return tt.refs, nil
				},
			}
			svc := NewPostService(repo, &groupRepoStub{}, images)

			_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
				UserID: 7, PostID: 1, Text: "new picture",
				Image: &UploadedImage{Content: []byte("img")},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoved, images.removed)
		})
	}
}

func TestPostService_DeletePost_KeepsImageUntilLastReference(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "author")
	media := NewMediaService(nil)
	media.root = t.TempDir()
	svc := NewPostService(repository.NewPostRepository(db), repository.NewGroupRepository(db), media)
	ctx := context.Background()

	upload := func() *UploadedImage {
		return &UploadedImage{ContentType: "image/png", Content: testutil.TinyPNG(5, 5)}
	}
	first, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "one", Image: upload()})
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "two", Image: upload()})
	require.NoError(t, err)
	require.Equal(t, first.Image, second.Image)
	stored := filepath.Join(media.Root(), first.Image)

	require.NoError(t, svc.DeletePost(ctx, first.ID))
	_, err = os.Stat(stored)
	require.NoError(t, err, "still used by the second post")

	require.NoError(t, svc.DeletePost(ctx, second.ID))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	assertCode(t, svc.DeletePost(ctx, second.ID), models.CodeNotFound)
}

func TestPostService_SetGroup(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "author")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, author, nil, "a post")
	svc := NewPostService(repository.NewPostRepository(db), repository.NewGroupRepository(db), nil)
	ctx := context.Background()

	moved, err := svc.SetGroup(ctx, post.ID, &group.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.Group)
	assert.Equal(t, "cats", moved.Group.Slug)
	assert.Equal(t, "a post", moved.Text)

	_, err = svc.SetGroup(ctx, post.ID, uintPtr(9999))
	assertValidationError(t, err)

	cleared, err := svc.SetGroup(ctx, post.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.GroupID)

	_, err = svc.SetGroup(ctx, 9999, nil)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_UpdatePost_NonAuthorWritesNothing(t *testing.T) {
	t.Parallel()
	updated := false
	repo := &postRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 7, Text: "original"}, nil
		},
		updateFn: func(context.Context, *models.Post) error {
			updated = true
			return nil
		},
	}
	svc := NewPostService(repo, &groupRepoStub{}, nil)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 8, PostID: 1, Text: "hijacked"})
	assertCode(t, err, models.CodeForbidden)
	assert.False(t, updated)
}

func TestPostService_CreateAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "author")
	group := testutil.CreateGroup(t, db, "Cats", "cats")
	media := NewMediaService(nil)
	media.root = t.TempDir()
	svc := NewPostService(repository.NewPostRepository(db), repository.NewGroupRepository(db), media)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID,
		Text:     "  A post about cats  ",
		GroupID:  &group.ID,
		Image:    &UploadedImage{Filename: "cat.png", ContentType: "image/png", Content: testutil.TinyPNG(4, 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, "A post about cats", post.Text)
	assert.Equal(t, "author", post.Author.Username)
	require.NotNil(t, post.Group)
	assert.Equal(t, "cats", post.Group.Slug)
	assert.True(t, post.HasImage())
	assert.False(t, post.PubDate.IsZero())

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{
		UserID:     author.ID,
		PostID:     post.ID,
		Text:       "Edited",
		ClearImage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Text)
	assert.Nil(t, updated.GroupID)
	assert.False(t, updated.HasImage())
	assert.Equal(t, author.ID, updated.AuthorID)
	assert.True(t, post.PubDate.Equal(updated.PubDate))
}
