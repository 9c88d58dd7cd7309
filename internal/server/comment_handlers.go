package server

import (
	"inkpress/internal/models"
	"inkpress/internal/notifications"
	"inkpress/internal/repository"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/v1/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 30)"
// @Success 200 {array} models.Comment
// @Router /comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), parsePagination(c, maxListLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comments)
}

// ListCommentsByFilters handles GET /api/v1/comments/by-filters
// @Summary Filter comments
// @Tags comments
// @Produce json
// @Param article_id query int false "Article ID"
// @Param user_id query int false "Author ID"
// @Success 200 {array} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/by-filters [get]
func (s *Server) ListCommentsByFilters(c *fiber.Ctx) error {
	articleID, err := optionalQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	userID, err := optionalQueryID(c, "user_id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListByFilters(c.UserContext(), repository.CommentFilter{
		ArticleID: articleID,
		UserID:    userID,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/v1/comments?article_id=
// @Summary Comment on an article
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param article_id query int true "Article ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	articleID, err := parseQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}

	user := currentUser(c)
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:    user.ID,
		ArticleID: articleID,
		Content:   req.Content,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.CommentCreated, articleID, user.ID, map[string]any{
		"comment_id": comment.ID,
	})
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/v1/comments
// @Summary Edit a comment
// @Description Owner only
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{id=int,new_content=string} true "Comment change"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	var req struct {
		ID         uint   `json:"id" validate:"required"`
		NewContent string `json:"new_content"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUser(c).ID,
		CommentID: req.ID,
		Content:   req.NewContent,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete a comment
// @Description Allowed for the owner, moderators and admins
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), currentUser(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
