package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkpress/internal/models"
	"inkpress/internal/observability"
	"inkpress/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 300
	maxContentLen = 100000
)

type ArticleService struct {
	articleRepo repository.ArticleRepository
	files       *FileService
}

type CreateArticleInput struct {
	UserID      uint
	Title       string
	Content     string
	CategoryIDs []uint
	Files       []Upload
}

// UpdateArticleInput applies only non-nil fields. CategoryIDs replaces the whole set.
type UpdateArticleInput struct {
	UserID      uint
	ArticleID   uint
	Title       *string
	Content     *string
	CategoryIDs *[]uint
}

// CreateArticleResult carries the stored article and the upload outcome.
type CreateArticleResult struct {
	Article *models.Article
	Uploads *UploadResult
}

func NewArticleService(articleRepo repository.ArticleRepository, files *FileService) *ArticleService {
	return &ArticleService{articleRepo: articleRepo, files: files}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "title", Tag: "required", Message: "title is required",
		})
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "title", Tag: "max", Message: "title must be at most 300 characters",
		})
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "content", Tag: "required", Message: "content is required",
		})
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "content", Tag: "max", Message: "content must be at most 100000 characters",
		})
	}
	return nil
}

// CreateArticle commits the article with its categories, then uploads any files one by one.
func (s *ArticleService) CreateArticle(ctx context.Context, in CreateArticleInput) (*CreateArticleResult, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	article := &models.Article{
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Content: in.Content,
	}
	if err := s.articleRepo.Create(ctx, article, in.CategoryIDs); err != nil {
		return nil, err
	}

	result := &CreateArticleResult{}
	if len(in.Files) > 0 && s.files != nil {
		ctx, span := observability.StartSpan(ctx, "article.upload_files",
			attribute.Int("files.count", len(in.Files)))
		result.Uploads = s.files.storeAll(ctx, in.UserID, article.ID, in.Files)
		span.End()
	}

	stored, err := s.articleRepo.GetByID(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	result.Article = stored
	return result, nil
}

// GetArticle counts one view per call and returns the article.
func (s *ArticleService) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	if err := s.articleRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	observability.ArticleViews.Inc()
	return s.articleRepo.GetByID(ctx, id)
}

func (s *ArticleService) ListArticles(ctx context.Context, page repository.Page) ([]*models.Article, error) {
	return s.articleRepo.List(ctx, page)
}

func (s *ArticleService) SearchArticles(ctx context.Context, filter repository.ArticleFilter) ([]*models.Article, error) {
	return s.articleRepo.Search(ctx, filter)
}

// UpdateArticle is reserved to the author; moderators cannot edit other people's articles.
func (s *ArticleService) UpdateArticle(ctx context.Context, in UpdateArticleInput) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if !article.IsAuthor(in.UserID) {
		return nil, models.NewForbiddenError("Only the author can edit this article")
	}

	upd := repository.ArticleUpdate{CategoryIDs: in.CategoryIDs}
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
		title := strings.TrimSpace(*in.Title)
		upd.Title = &title
	}
	if in.Content != nil {
		if err := validateContent(*in.Content); err != nil {
			return nil, err
		}
		upd.Content = in.Content
	}

	return s.articleRepo.Update(ctx, in.ArticleID, upd)
}

// DeleteArticle removes stored objects first so a storage failure leaves the article intact.
func (s *ArticleService) DeleteArticle(ctx context.Context, actor *models.User, id uint) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.IsAuthor(actor.ID) && !actor.CanModerate() {
		return nil, models.NewForbiddenError("Not allowed to delete this article")
	}

	if len(article.Files) > 0 && s.files != nil {
		if err := s.files.purgeObjects(ctx, article.Files); err != nil {
			return nil, err
		}
	}
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return article, nil
}
