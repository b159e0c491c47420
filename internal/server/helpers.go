package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "postId" -> "Invalid post ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// pageID is parseID for HTML routes, where a malformed id is just a missing page.
func pageID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID", "groupId" -> "group ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// respondError writes err as JSON with the status its code maps to. Internal
// errors are logged and reported without details.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// render executes a page template with the viewer added to data.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["Viewer"]; !ok {
		data["Viewer"] = viewer(c)
	}
	data["CSRFToken"] = csrfToken(c)
	return c.Status(status).Render(name, data)
}

// uploadedImage reads the optional file field. A missing or empty file yields nil.
func uploadedImage(c *fiber.Ctx, field string) (*service.UploadedImage, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.UploadedImage{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// formErrorsFrom turns a service validation error into a form error on field,
// or reports false when err is of another kind.
func formErrorsFrom(err error, errs forms.Errors, field string) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return false
	}
	errs.Add(field, appErr.Message)
	return true
}

// parseDate accepts YYYY-MM-DD; the empty string means no bound.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, models.NewValidationError("Dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
