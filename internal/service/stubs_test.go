package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository. Unset funcs succeed.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
	listFn    func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn == nil {
		post.ID = 1
		return nil
	}
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	if s.getByIDFn == nil {
		return &models.Post{ID: id}, nil
	}
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, limit, offset int) ([]models.Post, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, f, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, f)
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Group, error)
}

func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	return nil, models.NewNotFoundByError("Group", "slug", slug)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	if s.getByIDFn == nil {
		return &models.Group{ID: id}, nil
	}
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) List(context.Context, string) ([]models.Group, error) { return nil, nil }
func (s *groupRepoStub) Create(context.Context, *models.Group) error         { return nil }
func (s *groupRepoStub) Update(context.Context, *models.Group) error         { return nil }
func (s *groupRepoStub) Delete(context.Context, uint) error                  { return nil }

// imageStoreStub records saved and removed images.
type imageStoreStub struct {
	saveFn  func(context.Context, UploadedImage) (string, error)
	removed []string
}

func (s *imageStoreStub) Save(ctx context.Context, img UploadedImage) (string, error) {
	if s.saveFn == nil {
		return "posts/stub.jpg", nil
	}
	return s.saveFn(ctx, img)
}
func (s *imageStoreStub) Remove(rel string) error {
	s.removed = append(s.removed, rel)
	return nil
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsCode(err, models.CodeValidation), "expected validation error, got %v", err)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func uintPtr(v uint) *uint {
	return &v
}
