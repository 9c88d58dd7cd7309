package repository

import (
	"context"

	"inkpress/internal/models"

	"gorm.io/gorm"
)

// FileRepository defines persistence operations for file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id uint) (*models.File, error)
	ListByArticle(ctx context.Context, articleID uint) ([]*models.File, error)
	Delete(ctx context.Context, id uint) error
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository returns a new FileRepository implementation.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("File path already recorded")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, notFoundOr(err, "File", id)
	}
	return &file, nil
}

func (r *fileRepository) ListByArticle(ctx context.Context, articleID uint) ([]*models.File, error) {
	var files []*models.File
	if err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Order("id ASC").Find(&files).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return files, nil
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.File{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("File", id)
	}
	return nil
}
