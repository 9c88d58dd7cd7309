package repository

import (
	"context"

	"inkpress/internal/models"

	"gorm.io/gorm"
)

// LikeRepository keeps Like rows and the article's denormalized likes_count in step.
type LikeRepository interface {
	Like(ctx context.Context, userID, articleID uint) error
	Unlike(ctx context.Context, userID, articleID uint) error
	Exists(ctx context.Context, userID, articleID uint) (bool, error)
	CountAndSync(ctx context.Context, articleID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func lockArticle(tx *gorm.DB, articleID uint) error {
	var n int64
	if err := tx.Model(&models.Article{}).Where("id = ?", articleID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Article", articleID)
	}
	return nil
}

// Like inserts the pair and increments likes_count atomically. A second like is a Conflict.
func (r *likeRepository) Like(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}
		like := models.Like{ArticleID: articleID, UserID: userID}
		if err := tx.Omit("Article", "User").Create(&like).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Article already liked")
			}
			return err
		}
		return tx.Model(&models.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	return internal(err)
}

// Unlike deletes the pair and decrements likes_count, never below zero.
func (r *likeRepository) Unlike(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}
		res := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Like for article", articleID)
		}
		return tx.Model(&models.Article{}).
			Where("id = ? AND likes_count > 0", articleID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
	return internal(err)
}

func (r *likeRepository) Exists(ctx context.Context, userID, articleID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// CountAndSync counts Like rows and rewrites likes_count when it has drifted.
func (r *likeRepository) CountAndSync(ctx context.Context, articleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}
		if err := tx.Model(&models.Like{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Article{}).
			Where("id = ? AND likes_count <> ?", articleID, count).
			UpdateColumn("likes_count", count).Error
	})
	if err != nil {
		return 0, internal(err)
	}
	return count, nil
}
