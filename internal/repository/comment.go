package repository

import (
	"context"

	"inkpress/internal/models"

	"gorm.io/gorm"
)

// CommentFilter narrows ListByFilters. Nil fields are not applied.
type CommentFilter struct {
	ArticleID *uint
	UserID    *uint
}

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	List(ctx context.Context, page Page) ([]*models.Comment, error)
	ListByFilters(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Article").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, page Page) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := r.db.WithContext(ctx).Preload("User").Order("created_at DESC").Order("id DESC")
	if err := page.apply(q).Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ListByFilters(ctx context.Context, filter CommentFilter) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := r.db.WithContext(ctx).Preload("User")
	if filter.ArticleID != nil {
		q = q.Where("article_id = ?", *filter.ArticleID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return r.GetByID(ctx, id)
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
