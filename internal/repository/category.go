package repository

import (
	"context"
	"strings"

	"inkpress/internal/cache"
	"inkpress/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories and their article links.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	CreateMany(ctx context.Context, names []string) ([]models.Category, error)
	ListForArticle(ctx context.Context, articleID uint) ([]models.Category, error)
	ReplaceForArticle(ctx context.Context, articleID uint, categoryIDs []uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoryListKey(), &categories, cache.CategoryTTL, func() error {
		return r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := cache.Aside(ctx, cache.CategoryKey(id), &category, cache.CategoryTTL, func() error {
		if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
			return notFoundOr(err, "Category", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{Name: strings.TrimSpace(name)}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("Category '" + category.Name + "' already exists")
		}
		return nil, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CategoryListKey())
	return &category, nil
}

// CreateMany inserts all names or none.
func (r *categoryRepository) CreateMany(ctx context.Context, names []string) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		categories = append(categories, models.Category{Name: n})
	}
	if len(categories) == 0 {
		return categories, nil
	}

	if err := r.db.WithContext(ctx).Create(&categories).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("One or more categories already exist")
		}
		return nil, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CategoryListKey())
	return categories, nil
}

func (r *categoryRepository) ListForArticle(ctx context.Context, articleID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Joins("JOIN article_categories ac ON ac.category_id = categories.id").
		Where("ac.article_id = ?", articleID).
		Order("categories.id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

// ReplaceForArticle swaps the article's whole category set in one transaction.
func (r *categoryRepository) ReplaceForArticle(ctx context.Context, articleID uint, categoryIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Article{}).Where("id = ?", articleID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Article", articleID)
		}
		if err := replaceLinks(tx, articleID, categoryIDs); err != nil {
			return err
		}
		return tx.Model(&models.Article{}).Where("id = ?", articleID).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
	return internal(err)
}
