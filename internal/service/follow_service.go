package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// FollowOutcome reports what a follow request did.
type FollowOutcome int

const (
	FollowCreated FollowOutcome = iota
	FollowAlreadyExists
	FollowSelfRejected
)

func (o FollowOutcome) String() string {
	switch o {
	case FollowCreated:
		return "created"
	case FollowAlreadyExists:
		return "already_exists"
	case FollowSelfRejected:
		return "self_rejected"
	default:
		return "unknown"
	}
}

// FollowCounts are the numbers shown on a profile page.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// IsFollowing is false for anonymous viewers and for a user's own profile.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

// Follow makes userID follow the named author. Following yourself and
// following twice are both no-ops, reported through the outcome.
func (s *FollowService) Follow(ctx context.Context, userID uint, authorUsername string) (FollowOutcome, error) {
	ctx, span := observability.StartService(ctx, "FollowService", "Follow")
	outcome, err := s.follow(ctx, userID, authorUsername)
	observability.EndSpan(span, err)
	if err == nil {
		observability.FollowOutcomes.WithLabelValues(outcome.String()).Inc()
	}
	return outcome, err
}

func (s *FollowService) follow(ctx context.Context, userID uint, authorUsername string) (FollowOutcome, error) {
	if userID == 0 {
		return 0, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return 0, err
	}
	if author.ID == userID {
		return FollowSelfRejected, nil
	}

	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return 0, err
	}
	if !created {
		return FollowAlreadyExists, nil
	}
	middleware.Logger.InfoContext(ctx, "Follow created",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("author_id", uint64(author.ID)),
	)
	return FollowCreated, nil
}

// Unfollow removes the edge if present and reports whether it did.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, authorUsername string) (bool, error) {
	if userID == 0 {
		return false, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return false, err
	}
	removed, err := s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		return false, err
	}
	if removed {
		observability.FollowOutcomes.WithLabelValues("removed").Inc()
	} else {
		observability.FollowOutcomes.WithLabelValues("not_following").Inc()
	}
	return removed, nil
}

func (s *FollowService) ListFollowedAuthors(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.ListAuthors(ctx, userID)
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return FollowCounts{}, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return FollowCounts{}, err
	}
	return FollowCounts{Followers: followers, Following: following}, nil
}

// ListAll is the admin listing of every follow edge.
func (s *FollowService) ListAll(ctx context.Context, limit, offset int) ([]models.Follow, error) {
	return s.followRepo.List(ctx, limit, offset)
}
