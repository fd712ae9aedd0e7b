package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"go.uber.org/zap"
)

const forgotPasswordMessage = "If that email exists, a reset link has been sent."

// SessionManager opens and closes login sessions.
type SessionManager interface {
	Create(ctx context.Context, userID uint) (string, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// AuthDeps groups dependencies required by auth handlers.
type AuthDeps struct {
	Logger       *zap.Logger
	Auth         service.AuthService
	Sessions     SessionManager
	CookieSecure bool
}

// AuthHandler implements the /api/auth endpoints.
type AuthHandler struct {
	logger       *zap.Logger
	auth         service.AuthService
	sessions     SessionManager
	cookieSecure bool
}

// NewAuthHandler creates an auth handler with the provided dependencies.
func NewAuthHandler(deps AuthDeps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		logger:       logger,
		auth:         deps.Auth,
		sessions:     deps.Sessions,
		cookieSecure: deps.CookieSecure,
	}
}

// Register wires auth routes onto the provided router. sensitive guards the
// endpoints that accept credentials or send email.
func (h *AuthHandler) Register(router fiber.Router, sensitive fiber.Handler) {
	auth := router.Group("/api/auth")
	{
		auth.Post("/register", sensitive, h.SignUp)
		auth.Post("/login", sensitive, h.Login)
		auth.Post("/logout", h.Logout)
		auth.Get("/me", middleware.RequireSession(), h.Me)
		auth.Post("/forgot-password", sensitive, h.ForgotPassword)
		auth.Post("/reset-password", sensitive, h.ResetPassword)
	}
}

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignUp handles POST /api/auth/register
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return respondError(c, h.logger, err, "User not found", "Internal Server Error")
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    toUserResponse(user),
	})
}

// LoginRequest represents the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	ctx := c.UserContext()
	user, err := h.auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err, "User not found", "Internal Server Error")
	}

	sid, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to create session")
	}

	c.Cookie(h.sessionCookie(sid, time.Now().Add(h.sessions.TTL())))
	return c.JSON(toUserResponse(user))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(middleware.SessionCookie); sid != "" {
		if err := h.sessions.Delete(c.UserContext(), sid); err != nil {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	c.Cookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(fiber.Map{"success": true})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.UserContext(), currentUser(c))
	if err != nil {
		if service.IsNotFound(err) {
			return jsonError(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		return respondError(c, h.logger, err, "", "Internal Server Error")
	}
	return c.JSON(toUserResponse(user))
}

// ForgotPasswordRequest represents the request body for a reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, h.logger, err, "", "Internal Server Error")
	}
	return c.JSON(fiber.Map{"message": forgotPasswordMessage})
}

// ResetPasswordRequest represents the request body for setting a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respondError(c, h.logger, err, "", "Internal Server Error")
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully"})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
