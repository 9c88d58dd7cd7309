package server

import (
	"context"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localUser   = "user"
	localClaims = "claims"
)

// AuthRequired returns the authentication middleware. It resolves the bearer token
// to a user, rejecting missing, invalid, expired and revoked tokens with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.resolve(c, false); err != nil {
			return nil
		}
		return c.Next()
	}
}

// RoleRequired authenticates the caller and rejects users ranked below min with 403.
func (s *Server) RoleRequired(min models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.resolve(c, false); err != nil {
			return nil
		}
		if err := service.RequireRole(currentUser(c), min); err != nil {
			return models.Respond(c, err)
		}
		return c.Next()
	}
}

// websocketAuth also accepts ?token=, since browsers cannot set headers on an upgrade request.
func (s *Server) websocketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.resolve(c, true); err != nil {
			return nil
		}
		return c.Next()
	}
}

// optionalUser resolves the bearer token when one is sent. Anonymous callers
// and bad tokens both yield nil; public routes never reject on auth.
func (s *Server) optionalUser(c *fiber.Ctx) *models.User {
	token, ok := middleware.RequestToken(c, false)
	if !ok {
		return nil
	}
	user, _, err := s.authService.ResolveCurrentUser(c.UserContext(), token)
	if err != nil {
		return nil
	}
	return user
}

// resolve stores the authenticated user in locals. On failure it writes the
// error response and returns errResponseWritten.
func (s *Server) resolve(c *fiber.Ctx, allowQuery bool) error {
	token, ok := middleware.RequestToken(c, allowQuery)
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		_ = models.Respond(c, models.NewUnauthorizedError("Not authenticated"))
		return errResponseWritten
	}

	user, claims, err := s.authService.ResolveCurrentUser(c.UserContext(), token)
	if err != nil {
		if models.IsKind(err, models.KindUnauthorized) {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		_ = models.Respond(c, err)
		return errResponseWritten
	}

	c.Locals(localUserID, user.ID)
	c.Locals(localUser, user)
	c.Locals(localClaims, claims)
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID))
	return nil
}
