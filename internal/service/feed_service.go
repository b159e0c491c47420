package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/paginator"
	"yatube/internal/repository"
)

// PostPage is one page of a post listing.
type PostPage = paginator.Page[models.Post]

// FeedService builds the paginated post listings: all posts, a group, an
// author's profile and the followed-authors feed.
type FeedService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	pageSize  int
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	pageSize int,
) *FeedService {
	if pageSize <= 0 {
		pageSize = paginator.DefaultPageSize
	}
	return &FeedService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		pageSize:  pageSize,
	}
}

// PageSize returns the number of posts per page.
func (s *FeedService) PageSize() int {
	return s.pageSize
}

func (s *FeedService) ListAll(ctx context.Context, page string) (PostPage, error) {
	ctx, span := observability.StartService(ctx, "FeedService", "ListAll")
	p, err := s.list(ctx, repository.PostFilter{}, page)
	observability.EndSpan(span, err)
	return p, err
}

// ListByGroup returns the group and one page of its posts.
func (s *FeedService) ListByGroup(ctx context.Context, slug, page string) (*models.Group, PostPage, error) {
	ctx, span := observability.StartService(ctx, "FeedService", "ListByGroup")
	defer span.End()

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	p, err := s.list(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, PostPage{}, err
	}
	return group, p, nil
}

// ListByAuthor returns the author and one page of their posts.
func (s *FeedService) ListByAuthor(ctx context.Context, username, page string) (*models.User, PostPage, error) {
	ctx, span := observability.StartService(ctx, "FeedService", "ListByAuthor")
	defer span.End()

	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, PostPage{}, err
	}
	p, err := s.list(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, PostPage{}, err
	}
	return author, p, nil
}

// ListFollowed returns posts by every author userID follows.
func (s *FeedService) ListFollowed(ctx context.Context, userID uint, page string) (PostPage, error) {
	ctx, span := observability.StartService(ctx, "FeedService", "ListFollowed")
	p, err := s.list(ctx, repository.PostFilter{FollowerID: userID}, page)
	observability.EndSpan(span, err)
	return p, err
}

// Search is the admin post listing with text and date filters.
func (s *FeedService) Search(ctx context.Context, filter repository.PostFilter, page string) (PostPage, error) {
	return s.list(ctx, filter, page)
}

func (s *FeedService) CountByAuthor(ctx context.Context, username string) (int64, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: author.ID})
}

// CountByAuthorID is CountByAuthor for callers that already hold the author.
func (s *FeedService) CountByAuthorID(ctx context.Context, authorID uint) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: authorID})
}

func (s *FeedService) list(ctx context.Context, filter repository.PostFilter, page string) (PostPage, error) {
	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return PostPage{}, err
	}
	w := paginator.Resolve(int(total), s.pageSize, page)
	if total == 0 {
		return paginator.NewPage[models.Post](nil, w), nil
	}
	posts, err := s.postRepo.List(ctx, filter, w.Limit, w.Offset)
	if err != nil {
		return PostPage{}, err
	}
	return paginator.NewPage(posts, w), nil
}
