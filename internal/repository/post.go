package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint // posts by authors this user follows
	Query      string
	From       *time.Time
	Until      *time.Time
	Image      string // exact stored path
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := readDB(r.db).WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Update rewrites the editable columns. Author and publication date never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).
		Select("text", "group_id", "image", "updated_at").
		Updates(post)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// List returns posts newest first; ties on pub_date fall back to id.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	ctx, span := observability.StartQuery(ctx, "List", "posts")
	defer span.End()

	posts := []models.Post{}
	err := applyPostFilter(readDB(r.db).WithContext(ctx).Model(&models.Post{}), filter).
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var n int64
	if err := applyPostFilter(readDB(r.db).WithContext(ctx).Model(&models.Post{}), filter).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func applyPostFilter(q *gorm.DB, f PostFilter) *gorm.DB {
	if f.GroupID != 0 {
		q = q.Where("posts.group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		q = q.Joins("JOIN follows ON follows.author_id = posts.author_id").
			Where("follows.user_id = ?", f.FollowerID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("LOWER(posts.text) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if f.From != nil {
		q = q.Where("posts.pub_date >= ?", *f.From)
	}
	if f.Until != nil {
		q = q.Where("posts.pub_date < ?", *f.Until)
	}
	if f.Image != "" {
		q = q.Where("posts.image = ?", f.Image)
	}
	return q
}
