package server

import (
	"inkpress/internal/models"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Login handles POST /api/v1/auth/login
// @Summary User login
// @Description Authenticate with email (or username) and password and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} service.TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"username" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	token, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(token)
}

// Logout handles POST /api/v1/auth/logout
// @Summary Log out
// @Description Revoke the presented bearer token for the rest of its lifetime
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{detail=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(localClaims).(*service.Claims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Successfully logged out"})
}

// UpdatePassword handles PUT /api/v1/auth/update-password
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{email=string,password=string,new_password=string} true "Current credentials and new password"
// @Success 200 {object} object{detail=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /auth/update-password [put]
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email" validate:"required"`
		Password    string `json:"password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	err := s.authService.UpdatePassword(c.UserContext(), currentUser(c), service.UpdatePasswordInput{
		Email:       req.Email,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"detail": "Password updated"})
}
