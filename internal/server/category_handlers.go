package server

import (
	"inkpress/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/v1/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.ListCategories(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/v1/categories/:id
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.categoryService.GetCategory(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/v1/categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}
	category, err := s.categoryService.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// CreateCategories handles POST /api/v1/categories/multiple
// @Summary Create several categories
// @Description All names are inserted or none
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{names=[]string} true "Category names"
// @Success 201 {array} models.Category
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/multiple [post]
func (s *Server) CreateCategories(c *fiber.Ctx) error {
	var req struct {
		Names []string `json:"names"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}
	categories, err := s.categoryService.CreateCategories(c.UserContext(), req.Names)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(categories)
}

// GetArticleCategories handles GET /api/v1/categories/of-article?article_id=
// @Summary Categories of an article
// @Tags categories
// @Produce json
// @Param article_id query int true "Article ID"
// @Success 200 {object} service.ArticleCategories
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/of-article [get]
func (s *Server) GetArticleCategories(c *fiber.Ctx) error {
	articleID, err := parseQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	res, err := s.categoryService.CategoriesOfArticle(c.UserContext(), articleID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}
