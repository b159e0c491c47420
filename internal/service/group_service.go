package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// GroupService manages groups. Only admins reach the write operations.
type GroupService struct {
	groupRepo repository.GroupRepository
}

type GroupInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) List(ctx context.Context, query string) ([]models.Group, error) {
	return s.groupRepo.List(ctx, query)
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in, err := cleanGroupInput(in)
	if err != nil {
		return nil, err
	}
	group := &models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) Update(ctx context.Context, id uint, in GroupInput) (*models.Group, error) {
	in, err := cleanGroupInput(in)
	if err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	group.Title = in.Title
	group.Slug = in.Slug
	group.Description = in.Description
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the group; its posts remain without a group.
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	return s.groupRepo.Delete(ctx, id)
}

// DeleteBySlug is Delete for callers that only know the slug.
func (s *GroupService) DeleteBySlug(ctx context.Context, slug string) error {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, group.ID)
}

func cleanGroupInput(in GroupInput) (GroupInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateGroupTitle(in.Title); err != nil {
		return in, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateGroupSlug(in.Slug); err != nil {
		return in, models.NewValidationError(err.Error())
	}
	return in, nil
}
