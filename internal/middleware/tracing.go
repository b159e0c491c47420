package middleware

import (
	"fmt"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware adds OpenTelemetry tracing to requests
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), c.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.url", c.OriginalURL()),
				attribute.String("http.ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		// Route is only known after matching.
		span.SetName(fmt.Sprintf("%s %s", c.Method(), c.Route().Path))
		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if uid, ok := CurrentUserID(c); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(uid)))
		}

		return err
	}
}
