package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/paginator"
	"yatube/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("This field is required.")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Text:     text,
		AuthorID: in.UserID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

// ListComments returns the post's comments in creation order.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// Search is the admin comment listing: every comment, newest first, filtered
// by text.
func (s *CommentService) Search(ctx context.Context, query, page string, pageSize int) (paginator.Page[models.Comment], error) {
	total, err := s.commentRepo.Count(ctx, query)
	if err != nil {
		return paginator.Page[models.Comment]{}, err
	}
	w := paginator.Resolve(int(total), pageSize, page)
	if total == 0 {
		return paginator.NewPage[models.Comment](nil, w), nil
	}
	comments, err := s.commentRepo.List(ctx, query, w.Limit, w.Offset)
	if err != nil {
		return paginator.Page[models.Comment]{}, err
	}
	return paginator.NewPage(comments, w), nil
}
