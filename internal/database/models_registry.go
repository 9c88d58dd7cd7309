package database

import "inkpress/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models, parents first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Article{},
		&models.ArticleCategory{},
		&models.Comment{},
		&models.Like{},
		&models.File{},
	}
}
