package server

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"inkpress/internal/models"
	"inkpress/internal/notifications"
	"inkpress/internal/repository"
	"inkpress/internal/service"

	"github.com/gofiber/fiber/v2"
)

const searchDateLayout = "2006-01-02"

type createArticleResponse struct {
	*models.Article
	Uploads *service.UploadResult `json:"uploads,omitempty"`
}

// uploadsFromForm adapts multipart file headers to service uploads.
func uploadsFromForm(headers []*multipart.FileHeader) []service.Upload {
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// ListArticles handles GET /api/v1/articles
// @Summary List articles
// @Description Newest first
// @Tags articles
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 30)"
// @Success 200 {array} models.Article
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	articles, err := s.articleService.ListArticles(c.UserContext(), parsePagination(c, maxListLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(articles)
}

// GetArticle handles GET /api/v1/articles/:id
// @Summary Get article
// @Description Every call increments the view counter
// @Tags articles
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	article, err := s.articleService.GetArticle(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(article)
}

// CreateArticle handles POST /api/v1/articles
// @Summary Create article
// @Description Accepts JSON {title,content,categories} or multipart with title, content, select_categories ("1,2,3") and files
// @Tags articles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string,categories=[]int} false "Article"
// @Success 201 {object} createArticleResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	user := currentUser(c)
	in := service.CreateArticleInput{UserID: user.ID}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.Respond(c, models.NewBadRequestError("Invalid multipart form"))
		}
		in.Title = c.FormValue("title")
		in.Content = c.FormValue("content")
		in.CategoryIDs = parseIDList(c.FormValue("select_categories"))
		in.Files = uploadsFromForm(form.File["files"])
	} else {
		var req struct {
			Title      string `json:"title"`
			Content    string `json:"content"`
			Categories []uint `json:"categories"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.Respond(c, models.NewBadRequestError("Invalid request body"))
		}
		in.Title, in.Content, in.CategoryIDs = req.Title, req.Content, req.Categories
	}

	res, err := s.articleService.CreateArticle(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.ArticleCreated, res.Article.ID, user.ID, articleSummary(res.Article))
	return c.Status(fiber.StatusCreated).JSON(createArticleResponse{Article: res.Article, Uploads: res.Uploads})
}

// SearchArticles handles POST /api/v1/articles/search
// @Summary Search articles
// @Description Filters combine; dates (YYYY-MM-DD) match the whole UTC day
// @Tags articles
// @Accept json
// @Produce json
// @Param request body object{user_id=int,category_id=int,created_date=string,updated_date=string,skip=int,limit=int} true "Filters"
// @Success 200 {array} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Router /articles/search [post]
func (s *Server) SearchArticles(c *fiber.Ctx) error {
	var req struct {
		UserID      *uint  `json:"user_id"`
		CategoryID  *uint  `json:"category_id"`
		CreatedDate string `json:"created_date"`
		UpdatedDate string `json:"updated_date"`
		Skip        int    `json:"skip"`
		Limit       int    `json:"limit"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.Respond(c, models.NewBadRequestError("Invalid request body"))
		}
	}

	filter := repository.ArticleFilter{
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		Page:       clampPage(req.Skip, req.Limit, maxSearchLimit),
	}
	var err error
	if filter.CreatedDate, err = parseSearchDate("created_date", req.CreatedDate); err != nil {
		return models.Respond(c, err)
	}
	if filter.UpdatedDate, err = parseSearchDate("updated_date", req.UpdatedDate); err != nil {
		return models.Respond(c, err)
	}

	articles, err := s.articleService.SearchArticles(c.UserContext(), filter)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(articles)
}

func parseSearchDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(searchDateLayout, raw, time.UTC)
	if err != nil {
		return nil, models.NewBadRequestError(field + " must be formatted YYYY-MM-DD")
	}
	return &day, nil
}

// UpdateArticle handles PUT /api/v1/articles/:id
// @Summary Update article
// @Description Only provided fields change; categories, when present, replace the whole set. Author only.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param request body object{title=string,content=string,categories=[]int} true "Fields to change"
// @Success 200 {object} models.Article
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title      *string `json:"title"`
		Content    *string `json:"content"`
		Categories *[]uint `json:"categories"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}

	user := currentUser(c)
	article, err := s.articleService.UpdateArticle(c.UserContext(), service.UpdateArticleInput{
		UserID:      user.ID,
		ArticleID:   id,
		Title:       req.Title,
		Content:     req.Content,
		CategoryIDs: req.Categories,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.ArticleUpdated, article.ID, user.ID, articleSummary(article))
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/v1/articles/:id
// @Summary Delete article
// @Description Allowed for the author, moderators and admins. Attached files are removed from storage first.
// @Tags articles
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user := currentUser(c)
	if _, err := s.articleService.DeleteArticle(c.UserContext(), user, id); err != nil {
		return models.Respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.ArticleDeleted, id, user.ID, nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// SetArticleCategories handles PUT /api/v1/articles/:id/categories
// @Summary Replace article categories
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param request body object{categories=[]int} true "New category set"
// @Success 200 {object} service.ArticleCategories
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /articles/{id}/categories [put]
func (s *Server) SetArticleCategories(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Categories []uint `json:"categories"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewBadRequestError("Invalid request body"))
	}

	user := currentUser(c)
	res, err := s.categoryService.SetArticleCategories(c.UserContext(), user.ID, id, req.Categories)
	if err != nil {
		return models.Respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), notifications.ArticleUpdated, id, user.ID, res)
	return c.JSON(res)
}
