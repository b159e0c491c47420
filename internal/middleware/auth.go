// Package middleware provides authentication, logging, metrics, tracing and
// rate limiting middleware for the application.
package middleware

import (
	"errors"
	"strconv"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token claims issued to browser and API clients.
const (
	TokenIssuer   = "yatube"
	TokenAudience = "yatube-web"
	SessionCookie = "token"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// TokenClaims is the subset of JWT claims the application relies on.
type TokenClaims struct {
	UserID   uint
	Username string
	JTI      string
}

// ParseToken validates a signed token and extracts its claims.
func ParseToken(tokenString string) (TokenClaims, error) {
	if cfg == nil {
		return TokenClaims{}, errors.New("middleware not initialized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return TokenClaims{}, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return TokenClaims{}, errors.New("invalid user ID in token")
	}

	out := TokenClaims{UserID: uint(userID)}
	out.Username, _ = claims["username"].(string)
	out.JTI, _ = claims["jti"].(string)
	return out, nil
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

// AuthRequired is a middleware that enforces authentication for JSON routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := TokenFromRequest(c)
	if tokenString == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	claims, err := ParseToken(tokenString)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError(err.Error()))
	}

	WithUserID(c, claims.UserID)
	return c.Next()
}

// CurrentUserID returns the authenticated user's ID, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}
