package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the directed follow graph. Create and Delete are
// idempotent and report whether they changed anything.
type FollowRepository interface {
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	Create(ctx context.Context, userID, authorID uint) (bool, error)
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	ListAuthors(ctx context.Context, userID uint) ([]models.User, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// Create inserts the edge unless it already exists. Concurrent duplicates are
// absorbed by the unique_following index.
func (r *followRepository) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).Omit("User", "Author").Create(&models.Follow{UserID: userID, AuthorID: authorID})
		if res.Error != nil {
			if IsUniqueConstraintError(res.Error) {
				return nil
			}
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return created, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListAuthors returns the users followed by userID, by username.
func (r *followRepository) ListAuthors(ctx context.Context, userID uint) ([]models.User, error) {
	users := []models.User{}
	err := readDB(r.db).WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return r.count(ctx, "author_id = ?", authorID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "user_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, where string, id uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).Where(where, id).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// List returns all edges, newest first, for the admin listing.
func (r *followRepository) List(ctx context.Context, limit, offset int) ([]models.Follow, error) {
	follows := []models.Follow{}
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}
