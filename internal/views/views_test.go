package views

import (
	"bytes"
	"testing"
	"time"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/paginator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data map[string]interface{}) string {
	t.Helper()
	e := New()
	require.NoError(t, e.Load())
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, name, data))
	return buf.String()
}

func samplePosts() []models.Post {
	group := &models.Group{ID: 1, Title: "Cats", Slug: "cats"}
	return []models.Post{
		{ID: 2, Text: "second\nline", Author: models.User{Username: "leo"}, Group: group, Image: "posts/abc.jpg", PubDate: time.Now()},
		{ID: 1, Text: "<b>first</b>", Author: models.User{Username: "anna", FirstName: "Anna"}},
	}
}

func TestRender_IndexListsPostsAndPaginator(t *testing.T) {
	posts := samplePosts()
	page := paginator.NewPage(posts, paginator.Resolve(12, 2, "2"))

	out := render(t, "index", map[string]interface{}{"Page": page})

	assert.Contains(t, out, "second<br>line")
	assert.Contains(t, out, "&lt;b&gt;first&lt;/b&gt;")
	assert.Contains(t, out, `<img class="card-img my-2" src="/media/posts/abc.jpg"`)
	assert.Contains(t, out, `href="/group/cats/"`)
	assert.Contains(t, out, `href="?page=3"`)
	assert.Contains(t, out, "Log in", "anonymous navigation")
}

func TestRender_NavigationForViewer(t *testing.T) {
	page := paginator.NewPage[models.Post](nil, paginator.Resolve(0, 10, ""))
	out := render(t, "follow", map[string]interface{}{
		"Page":   page,
		"Viewer": &models.User{Username: "leo"},
	})
	assert.Contains(t, out, `href="/profile/leo/"`)
	assert.Contains(t, out, "No posts yet.")
	assert.NotContains(t, out, "pagination")
}

func TestRender_LogoutFormCarriesCSRFToken(t *testing.T) {
	page := paginator.NewPage[models.Post](nil, paginator.Resolve(0, 10, ""))
	out := render(t, "follow", map[string]interface{}{
		"Page":      page,
		"Viewer":    &models.User{Username: "leo"},
		"CSRFToken": "tok-123",
	})
	assert.Contains(t, out, `<input type="hidden" name="csrfmiddlewaretoken" value="tok-123">`)
}

func TestRender_ProfileFollowButton(t *testing.T) {
	base := map[string]interface{}{
		"Author":    &models.User{Username: "leo"},
		"Page":      paginator.NewPage[models.Post](nil, paginator.Resolve(0, 10, "")),
		"PostCount": int64(0),
		"Counts":    map[string]int64{"Followers": 3, "Following": 1},
	}

	base["ShowFollowButton"] = true
	base["Following"] = false
	assert.Contains(t, render(t, "profile", base), `action="/profile/leo/follow/"`)

	base["Following"] = true
	assert.Contains(t, render(t, "profile", base), `action="/profile/leo/unfollow/"`)

	base["ShowFollowButton"] = false
	out := render(t, "profile", base)
	assert.NotContains(t, out, "/follow/\"")
	assert.NotContains(t, out, "/unfollow/")
}

func TestRender_CreatePostFormWithErrors(t *testing.T) {
	form := &forms.PostForm{Group: "1"}
	out := render(t, "create_post", map[string]interface{}{
		"Form":   form,
		"Errors": form.Validate(),
		"Groups": []models.Group{{ID: 1, Title: "Cats"}, {ID: 2, Title: "Dogs"}},
		"IsEdit": false,
	})
	assert.Contains(t, out, "This field is required.")
	assert.Contains(t, out, `<option value="1" selected>Cats</option>`)
	assert.Contains(t, out, "Text of the new post")
	assert.Contains(t, out, `action="/create/"`)
}

func TestRender_Error(t *testing.T) {
	out := render(t, "error", map[string]interface{}{"Status": 404, "Message": "Not Found", "Path": "/nope/"})
	assert.Contains(t, out, "<code>/nope/</code>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := New()
	var buf bytes.Buffer
	assert.Error(t, e.Render(&buf, "missing", nil))
}

func TestLinebreaksbr(t *testing.T) {
	assert.Equal(t, "a<br>b&lt;", string(linebreaksbr("a\r\nb<")))
}
