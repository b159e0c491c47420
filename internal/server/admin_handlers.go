package server

import (
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// emptyValue stands in for missing values in admin listings.
const emptyValue = "-empty-"

// adminPost is the flattened row shown in the admin post list.
type adminPost struct {
	ID         uint      `json:"id"`
	Text       string    `json:"text"`
	PubDate    time.Time `json:"pub_date"`
	Author     string    `json:"author"`
	GroupTitle string    `json:"group_title"`
	Image      string    `json:"image"`
}

func toAdminPost(p models.Post) adminPost {
	row := adminPost{
		ID:         p.ID,
		Text:       p.Text,
		PubDate:    p.PubDate,
		Author:     p.Author.Username,
		GroupTitle: emptyValue,
		Image:      emptyValue,
	}
	if p.Group != nil {
		row.GroupTitle = p.Group.Title
	}
	if p.HasImage() {
		row.Image = p.Image
	}
	return row
}

// adminComment is the flattened row shown in the admin comment list.
type adminComment struct {
	ID      uint      `json:"id"`
	PostID  uint      `json:"post_id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// postGroupInput moves a post between groups. A missing or null group_id
// takes the post out of its group.
type postGroupInput struct {
	GroupID *uint `json:"group_id"`
}

// AdminListGroups handles GET /api/admin/groups
// @Summary List groups
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Title search"
// @Success 200 {array} models.Group
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/groups [get]
func (s *Server) AdminListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// AdminCreateGroup handles POST /api/admin/groups
// @Summary Create a group
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GroupInput true "Group"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/groups [post]
func (s *Server) AdminCreateGroup(c *fiber.Ctx) error {
	var in service.GroupInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	group, err := s.groupService.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// AdminUpdateGroup handles PUT /api/admin/groups/{id}
// @Summary Update a group
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param request body service.GroupInput true "Group"
// @Success 200 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/groups/{id} [put]
func (s *Server) AdminUpdateGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.GroupInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	group, err := s.groupService.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(group)
}

// AdminDeleteGroup handles DELETE /api/admin/groups/{id}
// @Summary Delete a group
// @Description Posts of the group are kept and lose their group
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/groups/{id} [delete]
func (s *Server) AdminDeleteGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.groupService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminListPosts handles GET /api/admin/posts
// @Summary Search posts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Text search"
// @Param from query string false "Published on or after (YYYY-MM-DD)"
// @Param to query string false "Published on or before (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Success 200 {object} object{items=[]adminPost,page=int,num_pages=int,total=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.PostFilter{Query: c.Query("q"), From: from}
	if to != nil {
		until := to.AddDate(0, 0, 1)
		filter.Until = &until
	}

	page, err := s.feedService.Search(c.UserContext(), filter, c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}

	rows := make([]adminPost, 0, len(page.Items))
	for _, p := range page.Items {
		rows = append(rows, toAdminPost(p))
	}
	return c.JSON(fiber.Map{
		"items":     rows,
		"page":      page.Number,
		"num_pages": page.NumPages,
		"total":     page.Total,
	})
}

// AdminDeletePost handles DELETE /api/admin/posts/{id}
// @Summary Delete a post
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminSetPostGroup handles PATCH /api/admin/posts/{id}
// @Summary Change a post's group
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body postGroupInput true "New group, null for none"
// @Success 200 {object} adminPost
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [patch]
func (s *Server) AdminSetPostGroup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in postGroupInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	post, err := s.postService.SetGroup(c.UserContext(), id, in.GroupID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAdminPost(*post))
}

// AdminListComments handles GET /api/admin/comments
// @Summary Search comments
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Text search"
// @Param page query int false "Page number"
// @Success 200 {object} object{items=[]adminComment,page=int,num_pages=int,total=int}
// @Router /admin/comments [get]
func (s *Server) AdminListComments(c *fiber.Ctx) error {
	page, err := s.commentService.Search(c.UserContext(), c.Query("q"), c.Query("page"), s.feedService.PageSize())
	if err != nil {
		return respondError(c, err)
	}
	rows := make([]adminComment, 0, len(page.Items))
	for _, cm := range page.Items {
		rows = append(rows, adminComment{
			ID:      cm.ID,
			PostID:  cm.PostID,
			Author:  cm.Author.Username,
			Text:    cm.Text,
			Created: cm.Created,
		})
	}
	return c.JSON(fiber.Map{
		"items":     rows,
		"page":      page.Number,
		"num_pages": page.NumPages,
		"total":     page.Total,
	})
}

// AdminListFollows handles GET /api/admin/follows
// @Summary List follow edges
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Follow
// @Router /admin/follows [get]
func (s *Server) AdminListFollows(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	follows, err := s.followService.ListAll(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(follows)
}

// AdminListUsers handles GET /api/admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.userService.ListUsers(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// AdminClearCache handles POST /api/admin/cache/clear
// @Summary Drop every cached page
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{cleared=bool,backend=string}
// @Router /admin/cache/clear [post]
func (s *Server) AdminClearCache(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := s.pageStore.Clear(ctx); err != nil {
		return respondError(c, err)
	}
	middleware.Logger.InfoContext(ctx, "page cache cleared",
		slog.String("backend", s.pageStore.Backend()))
	return c.JSON(fiber.Map{
		"cleared": true,
		"backend": s.pageStore.Backend(),
	})
}
