package repository

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context, query string) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, cache.GroupKey(slug), cache.GroupTTL, &group, func(ctx context.Context) (models.Group, error) {
		var g models.Group
		if err := readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return g, models.NewNotFoundByError("Group", "slug", slug)
			}
			return g, models.NewInternalError(err)
		}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Group", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &group, nil
}

// List returns all groups by title, optionally filtered by a title substring.
func (r *groupRepository) List(ctx context.Context, query string) ([]models.Group, error) {
	var groups []models.Group
	q := readDB(r.db).WithContext(ctx).Order("title ASC")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(query))+"%")
	}
	if err := q.Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		if IsUniqueConstraintError(err) {
			return models.NewConflictError("a group with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	var old models.Group
	if err := r.db.WithContext(ctx).First(&old, group.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Group", group.ID)
		}
		return models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).Model(group).
		Select("title", "slug", "description", "updated_at").
		Updates(group).Error
	if err != nil {
		if IsUniqueConstraintError(err) {
			return models.NewConflictError("a group with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateGroup(ctx, old.Slug)
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}

// Delete removes a group. Its posts stay, detached from any group.
func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	var group models.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&group, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Group", id)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}
