package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/materialsdesk/internal/config"
	"github.com/example/materialsdesk/internal/services"
	"github.com/example/materialsdesk/internal/session"
	"github.com/example/materialsdesk/internal/utils"
)

const (
	sessionContextKey   = "currentSession"
	sessionIDContextKey = "currentSessionID"
)

// AuthMiddleware validates console tokens and loads the admin session into context.
func AuthMiddleware(cfg *config.Config, store *services.SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		sessionID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		sess, err := store.Get(c.UserContext(), sessionID)
		if errors.Is(err, services.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired, please log in again")
		}
		if err != nil {
			return err
		}
		store.Touch(c.UserContext(), sessionID)

		c.Locals(sessionContextKey, sess)
		c.Locals(sessionIDContextKey, sessionID)
		return c.Next()
	}
}

// RequirePermission lets through sessions holding permission or the admin role.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if sess.HasRole("admin") || sess.HasPermission(permission) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "you do not have permission to perform this action")
	}
}

// CurrentSession extracts the authenticated admin session from context.
func CurrentSession(c *fiber.Ctx) (*session.Session, bool) {
	sess, ok := c.Locals(sessionContextKey).(*session.Session)
	return sess, ok && sess != nil
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(sessionIDContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
