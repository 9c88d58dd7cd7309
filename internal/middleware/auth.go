package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader == "" {
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequestToken returns the bearer token, falling back to the ?token= query parameter
// when allowQuery is set. Browsers cannot attach headers to WebSocket upgrades.
func RequestToken(c *fiber.Ctx, allowQuery bool) (string, bool) {
	if token, ok := BearerToken(c); ok {
		return token, true
	}
	if allowQuery {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, true
		}
	}
	return "", false
}

// UserID returns the authenticated user id stored by the auth middleware.
func UserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}
