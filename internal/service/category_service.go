package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkpress/internal/models"
	"inkpress/internal/repository"
)

const maxCategoryNameLen = 64

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	articleRepo  repository.ArticleRepository
}

// ArticleCategories is the category set of one article.
type ArticleCategories struct {
	ArticleID  uint              `json:"article_id"`
	Categories []models.Category `json:"categories"`
}

func NewCategoryService(categoryRepo repository.CategoryRepository, articleRepo repository.ArticleRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, articleRepo: articleRepo}
}

func validateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "name", Tag: "required", Message: "name is required",
		})
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "name", Tag: "max", Message: "name must be at most 64 characters",
		})
	}
	return nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(ctx, name)
}

// CreateCategories inserts all names or none.
func (s *CategoryService) CreateCategories(ctx context.Context, names []string) ([]models.Category, error) {
	if len(names) == 0 {
		return nil, models.NewBadRequestError("No category names provided")
	}
	for _, n := range names {
		if err := validateCategoryName(n); err != nil {
			return nil, err
		}
	}
	return s.categoryRepo.CreateMany(ctx, names)
}

func (s *CategoryService) CategoriesOfArticle(ctx context.Context, articleID uint) (*ArticleCategories, error) {
	exists, err := s.articleRepo.Exists(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Article", articleID)
	}
	cats, err := s.categoryRepo.ListForArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return &ArticleCategories{ArticleID: articleID, Categories: cats}, nil
}

// SetArticleCategories replaces the article's whole category set. Only the author may do it.
func (s *CategoryService) SetArticleCategories(ctx context.Context, userID, articleID uint, categoryIDs []uint) (*ArticleCategories, error) {
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.IsAuthor(userID) {
		return nil, models.NewForbiddenError("Only the author can change this article's categories")
	}
	if err := s.categoryRepo.ReplaceForArticle(ctx, articleID, categoryIDs); err != nil {
		return nil, err
	}
	return s.CategoriesOfArticle(ctx, articleID)
}
