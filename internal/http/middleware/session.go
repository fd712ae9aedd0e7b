package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	infraRedis "github.com/sifan077/Linxify/internal/infra/redis"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the session id.
	SessionCookie = "linxify_session"
	userIDKey     = "user_id"
)

// SessionResolver maps a session id to a user id.
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (uint, error)
}

// LoadSession resolves the session cookie, if any, and stores the user id in
// the request locals. Requests without a valid session pass through.
func LoadSession(sessions SessionResolver, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(SessionCookie)
		if sid == "" {
			return c.Next()
		}

		userID, err := sessions.Get(c.UserContext(), sid)
		if err != nil {
			if !errors.Is(err, infraRedis.ErrSessionNotFound) {
				logger.Error("session lookup failed", zap.Error(err))
			}
			return c.Next()
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// RequireSession rejects requests that LoadSession did not authenticate.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserID(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user for the request.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userIDKey).(uint)
	return id, ok && id != 0
}
