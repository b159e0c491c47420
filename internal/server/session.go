package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTTL         = 7 * 24 * time.Hour
	revokedKeyPrefix = "blacklist:"
	viewerLocal      = "viewer"
)

// LoadViewer resolves the session cookie or bearer token into the current
// user. Invalid, revoked or orphaned tokens leave the request anonymous.
func (s *Server) LoadViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := middleware.TokenFromRequest(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := middleware.ParseToken(raw)
		if err != nil {
			return c.Next()
		}

		ctx := c.UserContext()
		if s.isRevoked(ctx, claims.JTI) {
			return c.Next()
		}

		user, err := s.userService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			if !models.IsCode(err, models.CodeNotFound) {
				middleware.Logger.WarnContext(ctx, "session user lookup failed",
					slog.Uint64("user_id", uint64(claims.UserID)), slog.String("error", err.Error()))
			}
			return c.Next()
		}

		c.Locals(viewerLocal, user)
		middleware.WithUserID(c, user.ID)
		return c.Next()
	}
}

// viewer returns the logged-in user, or nil for anonymous requests.
func viewer(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(viewerLocal).(*models.User)
	return u
}

// viewerID returns 0 for anonymous requests.
func viewerID(c *fiber.Ctx) uint {
	if u := viewer(c); u != nil {
		return u.ID
	}
	return 0
}

// LoginRequired redirects anonymous visitors to the login page, remembering
// where they were going.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if viewer(c) == nil {
			return c.Redirect("/auth/login/?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireViewer rejects API requests whose token passed signature checks but
// was revoked or belongs to a deleted user. Must run after middleware.AuthRequired.
func (s *Server) RequireViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if viewer(c) == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token is revoked or the user no longer exists"))
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after RequireViewer so that the viewer is loaded.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := viewer(c)
		if u == nil || !u.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      middleware.TokenIssuer,
		"aud":      middleware.TokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.NewString()[:8])
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(tokenTTL),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// startSession issues a token for user and stores it in the session cookie.
func (s *Server) startSession(c *fiber.Ctx, user *models.User) (string, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return "", err
	}
	s.setSessionCookie(c, token)
	return token, nil
}

// revokeToken blacklists the token's jti until it would have expired anyway.
func (s *Server) revokeToken(ctx context.Context, raw string) {
	if s.redis == nil || raw == "" {
		return
	}
	claims, err := middleware.ParseToken(raw)
	if err != nil || claims.JTI == "" {
		return
	}
	if err := s.redis.Set(ctx, revokedKeyPrefix+claims.JTI, "1", tokenTTL).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation failed", slog.String("error", err.Error()))
	}
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}
