package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	t      *testing.T
	server *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
	csrf   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:            testSecret,
		Port:                 "8000",
		Env:                  "test",
		PageSize:             10,
		IndexCacheTTLSeconds: 20,
		CacheBackend:         config.CacheBackendRedis,
		MediaRoot:            t.TempDir(),
		ImageMaxUploadSizeMB: 5,
		AllowedOrigins:       "http://localhost:8000",
	}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{t: t, server: s, app: s.App(), db: db, redis: mr}
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, err := e.server.generateToken(u)
	require.NoError(e.t, err)
	return tok
}

// do sends req, logged in as u when u is non-nil.
func (e *testEnv) do(req *http.Request, u *models.User) *http.Response {
	e.t.Helper()
	if u != nil {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: e.token(u)})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func (e *testEnv) get(path string, u *models.User) *http.Response {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), u)
}

// csrfToken returns the token issued to a fresh visitor of the login page.
func (e *testEnv) csrfToken() string {
	e.t.Helper()
	if e.csrf != "" {
		return e.csrf
	}
	resp := e.get("/auth/login/", nil)
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookie {
			e.csrf = c.Value
		}
	}
	require.NotEmpty(e.t, e.csrf, "login page sets the csrf cookie")
	return e.csrf
}

// withCSRF attaches the csrf cookie and header to a hand-built request.
func (e *testEnv) withCSRF(req *http.Request) *http.Request {
	tok := e.csrfToken()
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: tok})
	req.Header.Set("X-Csrf-Token", tok)
	return req
}

func (e *testEnv) postForm(path string, form url.Values, u *models.User) *http.Response {
	tok := e.csrfToken()
	body := url.Values{csrfField: {tok}}
	for k, v := range form {
		body[k] = v
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: tok})
	return e.do(req, u)
}

func (e *testEnv) postMultipart(path string, fields map[string]string, fileField, fileName string, file []byte, u *models.User) *http.Response {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	tok := e.csrfToken()
	require.NoError(e.t, w.WriteField(csrfField, tok))
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(e.t, err)
		_, err = fw.Write(file)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: tok})
	return e.do(req, u)
}

// api sends a JSON request with a bearer token for u (if any).
func (e *testEnv) api(method, path string, body interface{}, u *models.User) *http.Response {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(u))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get("/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, config.CacheBackendRedis, body.Checks["page_cache"])
}

func TestReadinessDegradedWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	_ = env.server.redis.Close()

	resp := env.get("/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "degraded", body.Status)
}

func TestUnknownPathRendersNotFoundPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/unexisting_page/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, readBody(t, resp), "/unexisting_page/")
}

func TestUnknownAPIPathReturnsJSON(t *testing.T) {
	env := newTestEnv(t)

	resp := env.api(http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, models.CodeNotFound, body.Code)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestMediaIsServed(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "leo")

	resp := env.postMultipart("/create/", map[string]string{"text": "with picture"},
		"image", "small.gif", testutil.SmallGIF(), u)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	require.True(t, post.HasImage())

	resp = env.get("/media/"+post.Image, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}
