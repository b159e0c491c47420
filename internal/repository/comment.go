package repository

import (
	"context"
	"strings"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	List(ctx context.Context, query string, limit, offset int) ([]models.Comment, error)
	Count(ctx context.Context, query string) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByPost returns a post's comments in the order they were written.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// List returns comments across all posts, newest first, optionally limited
// to those whose text contains query.
func (r *commentRepository) List(ctx context.Context, query string, limit, offset int) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := searchComments(readDB(r.db).WithContext(ctx).Model(&models.Comment{}), query).
		Preload("Author").
		Order("comments.created DESC").
		Order("comments.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := searchComments(readDB(r.db).WithContext(ctx).Model(&models.Comment{}), query).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func searchComments(q *gorm.DB, query string) *gorm.DB {
	if s := strings.TrimSpace(query); s != "" {
		q = q.Where("LOWER(comments.text) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(s))+"%")
	}
	return q
}
