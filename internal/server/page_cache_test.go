package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCache_ServesStalePageUntilCleared(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	post := testutil.CreatePost(t, env.db, author, nil, "soon to vanish")

	resp := env.get("/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"))
	first := readBody(t, resp)
	require.Contains(t, first, "soon to vanish")

	require.NoError(t, env.db.Delete(&models.Post{}, post.ID).Error)

	resp = env.get("/", nil)
	assert.Equal(t, "hit", resp.Header.Get("X-Page-Cache"))
	assert.Equal(t, first, readBody(t, resp))

	require.NoError(t, env.server.pageStore.Clear(context.Background()))

	resp = env.get("/", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"))
	assert.NotContains(t, readBody(t, resp), "soon to vanish")
}

func TestIndexCache_ExpiresAfterTTL(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	env.get("/", nil)
	testutil.CreatePost(t, env.db, author, nil, "late arrival")

	resp := env.get("/", nil)
	assert.NotContains(t, readBody(t, resp), "late arrival")

	env.redis.FastForward(env.server.config.IndexCacheTTL() + time.Second)

	resp = env.get("/", nil)
	assert.Contains(t, readBody(t, resp), "late arrival")
}

func TestIndexCache_KeyedByViewerAndQuery(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")

	resp := env.get("/", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"))

	browser := func() *http.Request {
		return env.withCSRF(httptest.NewRequest(http.MethodGet, "/", nil))
	}

	resp = env.do(browser(), leo)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"))
	assert.Contains(t, readBody(t, resp), "/profile/leo/", "logged-in navigation is not served from the anonymous entry")

	resp = env.get("/?page=2", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"))

	resp = env.do(browser(), leo)
	assert.Equal(t, "hit", resp.Header.Get("X-Page-Cache"))

	resp = env.get("/", leo)
	assert.Equal(t, "miss", resp.Header.Get("X-Page-Cache"), "another browser gets its own logout token")
	assert.NotContains(t, readBody(t, resp), env.csrfToken())
}

func TestCachePage_SkipsErrorsAndNonGET(t *testing.T) {
	store := &recordingStore{}
	app := fiber.New()
	app.Use(cachePage(store, time.Minute))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).SendString("boom")
	})
	app.Post("/ok", func(c *fiber.Ctx) error {
		return c.SendString("posted")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, store.sets)
}

func TestPageCacheKey(t *testing.T) {
	assert.Equal(t, "index:0:/?page=2", pageCacheKey("index", 0, "", "/?page=2"))
	assert.Equal(t, "index:7:/", pageCacheKey("index", 7, "", "/"))
	assert.Equal(t, "index:7:abc:/", pageCacheKey("index", 7, "abc", "/"))
}

type recordingStore struct {
	cache.NoopPageStore
	sets []string
}

func (s *recordingStore) Set(_ context.Context, key string, _ []byte, _ time.Duration) error {
	s.sets = append(s.sets, key)
	return nil
}
