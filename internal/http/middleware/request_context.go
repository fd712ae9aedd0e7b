package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

// RequestID tags each request with an id, reusing a well-formed inbound
// X-Request-ID so traces from the frontend line up with server logs.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(RequestIDHeader, rid)
		c.Locals(requestIDKey, rid)
		return c.Next()
	}
}

// RequestLogger returns base annotated with the request id and, once a
// session is loaded, the user id.
func RequestLogger(c *fiber.Ctx, base *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if rid, ok := c.Locals(requestIDKey).(string); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if userID, ok := UserID(c); ok {
		fields = append(fields, zap.Uint("user_id", userID))
	}
	return base.With(fields...)
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] < 0x21 || rid[i] > 0x7e {
			return false
		}
	}
	return true
}
