package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"go.uber.org/zap"
)

var errInvalidID = errors.New("invalid id")

// respondError maps service errors onto HTTP responses. Unexpected errors are
// logged and answered with fallback.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, notFound, fallback string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return jsonError(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, errInvalidID):
		return jsonError(c, fiber.StatusBadRequest, "Invalid ID")
	case errors.Is(err, service.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrEmailTaken):
		return jsonError(c, fiber.StatusBadRequest, "User already exists with this email")
	case errors.Is(err, service.ErrInvalidCredentials):
		return jsonError(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidResetToken):
		return jsonError(c, fiber.StatusBadRequest, "Invalid or expired token")
	case service.IsNotFound(err):
		return jsonError(c, fiber.StatusNotFound, notFound)
	}

	middleware.RequestLogger(c, logger).Error(fallback,
		zap.Error(err),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	)
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func invalidBody(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// currentUser returns the session user. Routes using it are mounted behind
// middleware.RequireSession.
func currentUser(c *fiber.Ctx) uint {
	id, _ := middleware.UserID(c)
	return id
}
