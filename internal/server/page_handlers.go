package server

import (
	"fmt"
	"net/url"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the latest posts of every author.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.feedService.ListAll(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "index", fiber.Map{"Page": page})
}

// GroupPosts renders one group's posts.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.feedService.ListByGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "group_list", fiber.Map{
		"Group": group,
		"Page":  page,
	})
}

// Profile renders an author's posts together with follow state.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username, _ := url.PathUnescape(c.Params("username"))

	author, page, err := s.feedService.ListByAuthor(ctx, username, c.Query("page"))
	if err != nil {
		return err
	}
	counts, err := s.followService.Counts(ctx, author.ID)
	if err != nil {
		return err
	}

	me := viewerID(c)
	following, err := s.followService.IsFollowing(ctx, me, author.ID)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, "profile", fiber.Map{
		"Author":           author,
		"Page":             page,
		"PostCount":        page.Total,
		"Counts":           counts,
		"Following":        following,
		"ShowFollowButton": me != 0 && me != author.ID,
	})
}

// PostDetail renders a single post with its comments.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := pageID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	authorPosts, err := s.feedService.CountByAuthorID(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(ctx, post.ID)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, "post_detail", fiber.Map{
		"Post":            post,
		"AuthorPostCount": authorPosts,
		"Comments":        comments,
		"CanEdit":         service.CanEditPost(post, viewerID(c)) == service.Allowed,
	})
}

func (s *Server) renderPostForm(c *fiber.Ctx, form *forms.PostForm, errs forms.Errors, post *models.Post) error {
	groups, err := s.groupService.List(c.UserContext(), "")
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"IsEdit": post != nil,
	}
	if post != nil {
		data["PostID"] = post.ID
		data["CurrentImage"] = post.Image
	}
	return s.render(c, fiber.StatusOK, "create_post", data)
}

// CreatePostPage shows an empty post form.
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	return s.renderPostForm(c, &forms.PostForm{}, forms.Errors{}, nil)
}

// CreatePost publishes a post as the viewer and sends them to their profile.
// An invalid form is shown again with its errors and nothing is stored.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	me := viewer(c)

	var form forms.PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := form.Validate()

	img, err := uploadedImage(c, "image")
	if err != nil {
		errs.Add("image", "Upload a valid image.")
	}
	if errs.Any() {
		return s.renderPostForm(c, &form, errs, nil)
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: me.ID,
		Text:     form.Text,
		GroupID:  form.GroupID(),
		Image:    img,
	})
	if err != nil {
		if formErrorsFrom(err, errs, "") {
			return s.renderPostForm(c, &form, errs, nil)
		}
		return err
	}

	return c.Redirect(fmt.Sprintf("/profile/%s/", url.PathEscape(me.Username)), fiber.StatusFound)
}

// editablePost loads the post for editing. ok is false when the viewer may
// not edit it; the caller should then send them to the post page.
func (s *Server) editablePost(c *fiber.Ctx) (post *models.Post, ok bool, err error) {
	id, err := pageID(c, "id")
	if err != nil {
		return nil, false, err
	}
	post, err = s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return nil, false, err
	}
	return post, service.CanEditPost(post, viewerID(c)) == service.Allowed, nil
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// EditPostPage shows the post form filled with the current post.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post, ok, err := s.editablePost(c)
	if err != nil {
		return err
	}
	if !ok {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	form := &forms.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = fmt.Sprint(*post.GroupID)
	}
	return s.renderPostForm(c, form, forms.Errors{}, post)
}

// EditPost saves the author's changes. Anyone else is sent back to the post
// and nothing changes.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post, ok, err := s.editablePost(c)
	if err != nil {
		return err
	}
	if !ok {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	var form forms.PostForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := form.Validate()

	img, err := uploadedImage(c, "image")
	if err != nil {
		errs.Add("image", "Upload a valid image.")
	}
	if errs.Any() {
		return s.renderPostForm(c, &form, errs, post)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     viewerID(c),
		PostID:     post.ID,
		Text:       form.Text,
		GroupID:    form.GroupID(),
		Image:      img,
		ClearImage: form.ClearImage,
	})
	switch {
	case err == nil:
	case models.IsCode(err, models.CodeForbidden):
	case formErrorsFrom(err, errs, ""):
		return s.renderPostForm(c, &form, errs, post)
	default:
		return err
	}

	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// AddComment stores a comment by the viewer. The visitor lands back on the
// post whether or not the comment was valid.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := pageID(c, "id")
	if err != nil {
		return err
	}

	var form forms.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	if errs := form.Validate(); !errs.Any() {
		_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
			UserID: viewerID(c),
			PostID: id,
			Text:   form.Text,
		})
		if err != nil && !models.IsCode(err, models.CodeValidation) {
			return err
		}
	} else if _, err := s.postService.GetPost(c.UserContext(), id); err != nil {
		return err
	}

	return c.Redirect(postURL(id), fiber.StatusFound)
}

// FollowIndex renders posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.ListFollowed(c.UserContext(), viewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "follow", fiber.Map{"Page": page})
}

func profileURL(username string) string {
	return fmt.Sprintf("/profile/%s/", url.PathEscape(username))
}

// ProfileFollow subscribes the viewer to the author. Repeats and
// self-follows change nothing.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username, _ := url.PathUnescape(c.Params("username"))
	if _, err := s.followService.Follow(c.UserContext(), viewerID(c), username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}

// ProfileUnfollow removes the subscription if there is one.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username, _ := url.PathUnescape(c.Params("username"))
	if _, err := s.followService.Unfollow(c.UserContext(), viewerID(c), username); err != nil {
		return err
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
