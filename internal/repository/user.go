// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id uint, isAdmin bool) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID is served through the Redis cache. The cached copy never carries
// the password hash; use GetByUsername or GetByEmail when the hash is needed.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), cache.UserTTL, &user, func(ctx context.Context) (models.User, error) {
		var u models.User
		if err := readDB(r.db).WithContext(ctx).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return u, models.NewNotFoundError("User", id)
			}
			return u, models.NewInternalError(err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)), "email", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username = ?", username, "username", username)
}

func (r *userRepository) getBy(ctx context.Context, where string, arg interface{}, key, value string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(where, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundByError("User", key, value)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsUniqueConstraintError(err) {
			return models.NewConflictError("username or email already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile writes the editable profile columns only.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).
		Select("first_name", "last_name", "email", "updated_at").
		Updates(user).Error
	if err != nil {
		if IsUniqueConstraintError(err) {
			return models.NewConflictError("email already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Order("username ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
