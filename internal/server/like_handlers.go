package server

import (
	"inkpress/internal/models"
	"inkpress/internal/notifications"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Vote handles POST /api/v1/likes
// @Summary Like or unlike an article
// @Description dir=1 likes (409 when already liked), dir=0 removes the like (404 when there is none)
// @Tags likes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{article_id=int,dir=int} true "Vote"
// @Success 200 {object} object{detail=string}
// @Success 201 {object} object{user_id=int,article_id=int}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /likes [post]
func (s *Server) Vote(c *fiber.Ctx) error {
	var req struct {
		ArticleID uint `json:"article_id" validate:"required"`
		Dir       *int `json:"dir" validate:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user := currentUser(c)
	dir := service.LikeDirection(*req.Dir)
	if err := s.likeService.Vote(c.UserContext(), user.ID, req.ArticleID, dir); err != nil {
		return models.Respond(c, err)
	}

	if dir == service.Unlike {
		return c.JSON(fiber.Map{"detail": "Like cancelled"})
	}
	s.publishFeedEvent(c.UserContext(), notifications.ArticleLiked, req.ArticleID, user.ID, nil)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":    user.ID,
		"article_id": req.ArticleID,
	})
}

// CountLikes handles GET /api/v1/likes?article_id=
// @Summary Count likes
// @Description Recomputes the count from like rows and resynchronises the article counter.
// @Description A bearer token adds whether the caller likes the article.
// @Tags likes
// @Produce json
// @Param article_id query int true "Article ID"
// @Success 200 {object} object{article_id=int,count=int,liked=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /likes [get]
func (s *Server) CountLikes(c *fiber.Ctx) error {
	articleID, err := parseQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	count, err := s.likeService.Count(c.UserContext(), articleID)
	if err != nil {
		return models.Respond(c, err)
	}
	body := fiber.Map{
		"article_id": articleID,
		"count":      count,
	}
	if user := s.optionalUser(c); user != nil {
		liked, err := s.likeService.HasLiked(c.UserContext(), user.ID, articleID)
		if err != nil {
			return models.Respond(c, err)
		}
		body["liked"] = liked
	}
	return c.JSON(body)
}
