package server

import (
	"net/url"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Text    string `json:"text"`
	GroupID *uint  `json:"group_id"`
}

type commentRequest struct {
	Text string `json:"text"`
}

// APIListPosts handles GET /api/posts
// @Summary List posts
// @Description Latest posts of every author, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Router /posts [get]
func (s *Server) APIListPosts(c *fiber.Ctx) error {
	page, err := s.feedService.ListAll(c.UserContext(), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// APIGetPost handles GET /api/posts/{id}
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.Post,comments=[]models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) APIGetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	comments, err := s.commentService.ListComments(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// APIListGroups handles GET /api/groups
// @Summary List groups
// @Tags groups
// @Produce json
// @Param q query string false "Title search"
// @Success 200 {array} models.Group
// @Router /groups [get]
func (s *Server) APIListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// APIGroupPosts handles GET /api/groups/{slug}/posts
// @Summary List a group's posts
// @Tags groups
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} object{group=models.Group,posts=service.PostPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{slug}/posts [get]
func (s *Server) APIGroupPosts(c *fiber.Ctx) error {
	group, page, err := s.feedService.ListByGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"group": group,
		"posts": page,
	})
}

// APIProfilePosts handles GET /api/profiles/{username}/posts
// @Summary List an author's posts
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} object{author=models.User,posts=service.PostPage,followers=int,following=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/posts [get]
func (s *Server) APIProfilePosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username, _ := url.PathUnescape(c.Params("username"))
	author, page, err := s.feedService.ListByAuthor(ctx, username, c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	counts, err := s.followService.Counts(ctx, author.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"author":    author,
		"posts":     page,
		"followers": counts.Followers,
		"following": counts.Following,
	})
}

// APICreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) APICreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: viewerID(c),
		Text:     req.Text,
		GroupID:  req.GroupID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// APIUpdatePost handles PUT /api/posts/{id}
// @Summary Edit a post
// @Description Only the author may edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body postRequest true "Post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) APIUpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  viewerID(c),
		PostID:  id,
		Text:    req.Text,
		GroupID: req.GroupID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// APICreateComment handles POST /api/posts/{id}/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) APICreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: viewerID(c),
		PostID: id,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// APIFollowFeed handles GET /api/follow
// @Summary Posts by followed authors
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Router /follow [get]
func (s *Server) APIFollowFeed(c *fiber.Ctx) error {
	page, err := s.feedService.ListFollowed(c.UserContext(), viewerID(c), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// APIListFollows handles GET /api/follows
// @Summary Authors the caller follows
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /follows [get]
func (s *Server) APIListFollows(c *fiber.Ctx) error {
	authors, err := s.followService.ListFollowedAuthors(c.UserContext(), viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(authors)
}

// APIFollow handles POST /api/profiles/{username}/follow
// @Summary Follow an author
// @Description Idempotent. Following yourself is reported and ignored.
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{outcome=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [post]
func (s *Server) APIFollow(c *fiber.Ctx) error {
	username, _ := url.PathUnescape(c.Params("username"))
	outcome, err := s.followService.Follow(c.UserContext(), viewerID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if outcome == service.FollowCreated {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"outcome": outcome.String()})
}

// APIUnfollow handles DELETE /api/profiles/{username}/follow
// @Summary Unfollow an author
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{removed=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [delete]
func (s *Server) APIUnfollow(c *fiber.Ctx) error {
	username, _ := url.PathUnescape(c.Params("username"))
	removed, err := s.followService.Unfollow(c.UserContext(), viewerID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}
