package server

import (
	"errors"
	"log/slog"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// errorHandler turns handler errors into JSON for the API and into the error
// page for everything else.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Something went wrong on our side."

	var fe *fiber.Error
	var appErr *models.AppError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
	case errors.As(err, &appErr):
		status = models.StatusFor(err)
		if status != fiber.StatusInternalServerError {
			message = appErr.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}

	if isAPIPath(c.Path()) {
		if appErr != nil {
			return models.RespondWithError(c, status, err)
		}
		return c.Status(status).JSON(models.ErrorResponse{Error: message})
	}

	if status == fiber.StatusNotFound {
		message = "Page not found."
	}
	if rerr := s.render(c, status, "error", fiber.Map{
		"Status":  status,
		"Message": message,
		"Path":    c.Path(),
	}); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// NotFound is the catch-all handler registered after every route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	if isAPIPath(c.Path()) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundByError("Route", "path", c.Path()))
	}
	return fiber.ErrNotFound
}
