package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

const maxPostTextLen = 50000

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	images    ImageStore
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *UploadedImage
}

type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Text       string
	GroupID    *uint
	Image      *UploadedImage
	ClearImage bool
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	images ImageStore,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		images:    images,
	}
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// CreatePost publishes a post as in.AuthorID. The publication date is
// assigned by storage.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartService(ctx, "PostService", "CreatePost")
	post, err := s.createPost(ctx, in)
	observability.EndSpan(span, err)
	return post, err
}

func (s *PostService) createPost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	text, err := cleanPostText(in.Text)
	if err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
	}
	if in.Image != nil {
		rel, err := s.saveImage(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.releaseImage(ctx, post.Image)
		return nil, err
	}
	observability.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "Post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Uint64("author_id", uint64(post.AuthorID)),
	)
	return s.postRepo.GetByID(ctx, post.ID)
}

// UpdatePost applies an edit by the post's author. Anyone else gets a
// Forbidden error and nothing is written.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	ctx, span := observability.StartService(ctx, "PostService", "UpdatePost")
	post, err := s.updatePost(ctx, in)
	observability.EndSpan(span, err)
	return post, err
}

func (s *PostService) updatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if CanEditPost(post, in.UserID) != Allowed {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	text, err := cleanPostText(in.Text)
	if err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	previousImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	post.Group = nil
	switch {
	case in.Image != nil:
		rel, err := s.saveImage(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != previousImage {
			s.releaseImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != previousImage {
		s.releaseImage(ctx, previousImage)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// SetGroup moves a post to another group, or out of any group when groupID
// is nil. It is the admin counterpart of editing; authorship is not checked.
func (s *PostService) SetGroup(ctx context.Context, postID uint, groupID *uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, groupID); err != nil {
		return nil, err
	}
	post.GroupID = groupID
	post.Group = nil
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes a post outright. Only the admin API calls it.
func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.releaseImage(ctx, post.Image)
	return nil
}

// releaseImage deletes a stored image once no post refers to it. Identical
// uploads share one file, so a path may still be in use by another post.
func (s *PostService) releaseImage(ctx context.Context, rel string) {
	if rel == "" || s.images == nil {
		return
	}
	n, err := s.postRepo.Count(ctx, repository.PostFilter{Image: rel})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "image reference check failed",
			slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		return
	}
	if err := s.images.Remove(rel); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove image",
			slog.String("path", rel), slog.String("error", err.Error()))
	}
}

func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("Select a valid choice. That choice is not one of the available choices.")
		}
		return err
	}
	return nil
}

func (s *PostService) saveImage(ctx context.Context, img UploadedImage) (string, error) {
	if s.images == nil {
		return "", models.NewValidationError("Image uploads are disabled")
	}
	return s.images.Save(ctx, img)
}

func cleanPostText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("This field is required.")
	}
	if utf8.RuneCountInString(text) > maxPostTextLen {
		return "", models.NewValidationError("Text too long (max 50000 characters)")
	}
	return text, nil
}
