package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// UploadFiles handles POST /api/v1/files/upload?article_id=
// @Summary Attach files to an article
// @Description Invalid or failing files are skipped; the response lists signed URLs of the stored ones
// @Tags files
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param article_id query int true "Article ID"
// @Param files formData file true "Files"
// @Success 201 {object} service.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /files/upload [post]
func (s *Server) UploadFiles(c *fiber.Ctx) error {
	articleID, err := parseQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return models.Respond(c, models.NewBadRequestError("No files provided"))
	}

	res, err := s.fileService.Upload(c.UserContext(), currentUser(c).ID, articleID, uploadsFromForm(form.File["files"]))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// ListFiles handles GET /api/v1/files?article_id=
// @Summary List an article's files
// @Tags files
// @Produce json
// @Param article_id query int true "Article ID"
// @Success 200 {array} service.FileView
// @Failure 404 {object} models.ErrorResponse
// @Router /files [get]
func (s *Server) ListFiles(c *fiber.Ctx) error {
	articleID, err := parseQueryID(c, "article_id")
	if err != nil {
		return nil
	}
	files, err := s.fileService.ListByArticle(c.UserContext(), articleID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(files)
}

// RedirectToFile handles GET /api/v1/files/:id
// @Summary Download a file
// @Description Redirects to a time-limited signed URL
// @Tags files
// @Param id path int true "File ID"
// @Success 307
// @Failure 404 {object} models.ErrorResponse
// @Router /files/{id} [get]
func (s *Server) RedirectToFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.fileService.GetFile(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Redirect(view.URL, fiber.StatusTemporaryRedirect)
}

// GetFileInfo handles GET /api/v1/files/:id/info
// @Summary File metadata
// @Tags files
// @Produce json
// @Param id path int true "File ID"
// @Success 200 {object} service.FileView
// @Failure 404 {object} models.ErrorResponse
// @Router /files/{id}/info [get]
func (s *Server) GetFileInfo(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.fileService.GetFile(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(view)
}

// DeleteFile handles DELETE /api/v1/files/:id
// @Summary Delete a file
// @Description Allowed for the uploader, moderators and admins. A storage failure keeps the record and answers 500.
// @Tags files
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /files/{id} [delete]
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.fileService.DeleteFile(c.UserContext(), currentUser(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ServeMedia serves LocalStore objects behind signed, expiring URLs.
func (s *Server) ServeMedia(store *storage.LocalStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimPrefix(c.Params("*"), "/")
		query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return models.Respond(c, models.NewForbiddenError("Invalid signed URL"))
		}
		if err := store.Verify(c.UserContext(), key, query); err != nil {
			if errors.Is(err, storage.ErrURLExpired) {
				return models.Respond(c, models.NewForbiddenError("Signed URL has expired"))
			}
			return models.Respond(c, models.NewForbiddenError("Invalid signed URL"))
		}

		path, err := store.Path(key)
		if err != nil {
			return models.Respond(c, models.NewForbiddenError("Invalid signed URL"))
		}
		if err := c.SendFile(path); err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusNotFound {
				return models.Respond(c, models.NewNotFoundError("File", key))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "serve media failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			return models.Respond(c, models.NewInternalError(err))
		}
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		return nil
	}
}
