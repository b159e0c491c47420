package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	ConfigureLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// ConfigureLogger rebuilds Logger for the given environment: JSON in
// production, text elsewhere.
func ConfigureLogger(env, level string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(&ctxHandler{handler})
	slog.SetDefault(Logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextMiddleware copies request ID and trace ID from Fiber locals into the
// request context so that service-layer logs carry them.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, uid)
		}
		if tid, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// WithUserID stores the authenticated user on both the locals and the request context.
func WithUserID(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// StructuredLogger returns a Fiber middleware for logging requests using slog.
// Errors are logged with the status the error handler will answer with,
// client errors at WARN and server errors at ERROR.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		if strings.HasPrefix(c.Path(), "/health") {
			return err
		}

		status := responseStatus(c, err)
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
		}

		ctx := c.UserContext()
		switch {
		case status >= fiber.StatusInternalServerError:
			Logger.ErrorContext(ctx, "request failed", fields...)
		case status >= fiber.StatusBadRequest:
			Logger.WarnContext(ctx, "request rejected", fields...)
		default:
			Logger.InfoContext(ctx, "request processed", fields...)
		}

		return err
	}
}

// responseStatus is the status the client receives. A returned error has not
// been written yet, so its status comes from the error itself.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return models.StatusFor(err)
}
