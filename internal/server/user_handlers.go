package server

import (
	"inkpress/internal/models"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup handles POST /api/v1/users/signup
// @Summary User signup
// @Description Register a new account with role "user"
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} signupResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(signupResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// GetMe handles GET /api/v1/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// ListUsers handles GET /api/v1/users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext(), parsePagination(c, maxSearchLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// ListUsersByRole handles GET /api/v1/users/role?role=
// @Summary List users with a role
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string true "user, author, moderator or admin"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/role [get]
func (s *Server) ListUsersByRole(c *fiber.Ctx) error {
	users, err := s.userService.ListByRole(c.UserContext(), c.Query("role"), parsePagination(c, maxSearchLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/v1/users/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// SetUserRole handles PUT /api/v1/users/:id/role
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{role=string} true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/role [put]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role" validate:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.SetRole(c.UserContext(), currentUser(c), id, req.Role)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}
