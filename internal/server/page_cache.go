package server

import (
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// cachePage serves GET responses from store for ttl. Entries are keyed by
// viewer and full URL, so query strings (page numbers) and per-user
// navigation never leak between entries. A signed-in viewer's entries are
// also keyed by the browser's csrf token embedded in the logout form. Only 200 responses are stored and
// nothing evicts an entry early: content changes show up once it expires.
func cachePage(store cache.PageStore, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || ttl <= 0 {
			return c.Next()
		}

		ctx := c.UserContext()
		viewer, session := viewerID(c), ""
		if viewer != 0 {
			session = csrfToken(c)
		}
		key := pageCacheKey("index", viewer, session, c.OriginalURL())

		if body, ok := cache.Lookup(ctx, store, key); ok {
			c.Set("X-Page-Cache", "hit")
			c.Type("html", "utf-8")
			return c.Status(fiber.StatusOK).Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		c.Set("X-Page-Cache", "miss")
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Set(ctx, key, body, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "page cache write failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}
}

func pageCacheKey(page string, viewerID uint, session, url string) string {
	if session == "" {
		return fmt.Sprintf("%s:%d:%s", page, viewerID, url)
	}
	return fmt.Sprintf("%s:%d:%s:%s", page, viewerID, session, url)
}
