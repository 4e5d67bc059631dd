package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/materialsdesk/internal/config"
	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/middleware"
	"github.com/example/materialsdesk/internal/services"
	"github.com/example/materialsdesk/internal/session"
	"github.com/example/materialsdesk/internal/utils"
)

// Authenticator is the gateway login endpoint.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResult, error)
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth  Authenticator
	store *services.SessionStore
	cfg   *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth Authenticator, store *services.SessionStore, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, store: store, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the admin against the marketplace API and opens a
// console session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	record, sess, err := h.store.Create(c.UserContext(), result)
	if err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, record.ID, result.User.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"user":       userResponse(sess),
		"token":      token,
		"expires_at": record.ExpiresAt,
	})
}

// Logout revokes the current session. Open order views are dropped through
// the session store's end hooks.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	id, ok := middleware.CurrentSessionID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.store.Revoke(c.UserContext(), id, "logout"); err != nil {
		log.Printf("[Auth] failed to revoke session %s: %v", id, err)
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// Me returns the session context of the current admin.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponse(sess),
		"session": fiber.Map{
			"id":            sess.ID(),
			"authenticated": sess.IsAuthenticated(),
			"created_at":    sess.CreatedAt(),
			"can_update":    sess.HasRole("admin") || sess.HasPermission(PermissionOrdersUpdate),
		},
	})
}

func userResponse(sess *session.Session) fiber.Map {
	user := sess.CurrentUser()
	permissions := user.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"roles":       user.Roles,
		"permissions": permissions,
	}
}
