package repository

import (
	"context"
	"time"

	"inkpress/internal/models"

	"gorm.io/gorm"
)

// ArticleFilter narrows Search. Nil fields are not applied; dates match the whole UTC day.
type ArticleFilter struct {
	UserID      *uint
	CategoryID  *uint
	CreatedDate *time.Time
	UpdatedDate *time.Time
	Page        Page
}

// ArticleUpdate carries only the fields a caller wants to change.
// A non-nil CategoryIDs replaces the whole category set, even when empty.
type ArticleUpdate struct {
	Title       *string
	Content     *string
	CategoryIDs *[]uint
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article, categoryIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	Exists(ctx context.Context, id uint) (bool, error)
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]*models.Article, error)
	Search(ctx context.Context, filter ArticleFilter) ([]*models.Article, error)
	Update(ctx context.Context, id uint, upd ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository returns a new ArticleRepository implementation.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create inserts the article and its category links in one transaction.
func (r *articleRepository) Create(ctx context.Context, article *models.Article, categoryIDs []uint) error {
	ids := uniqueIDs(categoryIDs)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategories(tx, ids); err != nil {
			return err
		}
		if err := tx.Omit("CategoryLinks", "Likes", "Files", "User").Create(article).Error; err != nil {
			return err
		}
		return insertLinks(tx, article.ID, ids)
	})
	if err != nil {
		return internal(err)
	}
	article.CategoryIDs = ids
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("CategoryLinks", func(db *gorm.DB) *gorm.DB { return db.Order("category_id ASC") }).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&article, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Article", id)
	}
	article.ResolveCategoryIDs()
	return &article, nil
}

func (r *articleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// IncrementViews bumps the counter in SQL so concurrent readers never lose an increment.
func (r *articleRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Article", id)
	}
	return nil
}

func (r *articleRepository) List(ctx context.Context, page Page) ([]*models.Article, error) {
	return r.find(ctx, r.db.WithContext(ctx), page)
}

func (r *articleRepository) Search(ctx context.Context, filter ArticleFilter) ([]*models.Article, error) {
	q := r.db.WithContext(ctx).Model(&models.Article{})
	if filter.UserID != nil {
		q = q.Where("articles.user_id = ?", *filter.UserID)
	}
	if filter.CategoryID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM article_categories ac WHERE ac.article_id = articles.id AND ac.category_id = ?)", *filter.CategoryID)
	}
	if filter.CreatedDate != nil {
		from, to := dayBounds(*filter.CreatedDate)
		q = q.Where("articles.created_at >= ? AND articles.created_at < ?", from, to)
	}
	if filter.UpdatedDate != nil {
		from, to := dayBounds(*filter.UpdatedDate)
		q = q.Where("articles.updated_at >= ? AND articles.updated_at < ?", from, to)
	}
	return r.find(ctx, q, filter.Page)
}

func (r *articleRepository) find(_ context.Context, q *gorm.DB, page Page) ([]*models.Article, error) {
	var articles []*models.Article
	q = q.Preload("User").
		Preload("CategoryLinks", func(db *gorm.DB) *gorm.DB { return db.Order("category_id ASC") }).
		Order("articles.created_at DESC").
		Order("articles.id DESC")
	if err := page.apply(q).Find(&articles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, a := range articles {
		a.ResolveCategoryIDs()
	}
	return articles, nil
}

// Update applies only the provided fields; category replacement happens in the same transaction.
func (r *articleRepository) Update(ctx context.Context, id uint, upd ArticleUpdate) (*models.Article, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Article
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			return notFoundOr(err, "Article", id)
		}

		fields := map[string]interface{}{}
		if upd.Title != nil {
			fields["title"] = *upd.Title
		}
		if upd.Content != nil {
			fields["content"] = *upd.Content
		}
		if upd.CategoryIDs != nil {
			if err := replaceLinks(tx, id, *upd.CategoryIDs); err != nil {
				return err
			}
		}
		if len(fields) > 0 || upd.CategoryIDs != nil {
			fields["updated_at"] = time.Now()
			if err := tx.Model(&models.Article{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the article and every dependent row in one transaction.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []interface{}{&models.File{}, &models.Like{}, &models.Comment{}, &models.ArticleCategory{}} {
			if err := tx.Where("article_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Article", id)
		}
		return nil
	})
	return internal(err)
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}

// requireCategories fails with BadRequest when any id has no category row.
func requireCategories(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Category{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return models.NewBadRequestError("One or more categories do not exist")
	}
	return nil
}

func insertLinks(tx *gorm.DB, articleID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.ArticleCategory, 0, len(ids))
	for _, cid := range ids {
		links = append(links, models.ArticleCategory{ArticleID: articleID, CategoryID: cid})
	}
	return tx.Omit("Category").Create(&links).Error
}

// replaceLinks deletes every link for the article and inserts the new set.
func replaceLinks(tx *gorm.DB, articleID uint, categoryIDs []uint) error {
	ids := uniqueIDs(categoryIDs)
	if err := requireCategories(tx, ids); err != nil {
		return err
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleCategory{}).Error; err != nil {
		return err
	}
	return insertLinks(tx, articleID, ids)
}
