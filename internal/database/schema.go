package database

import (
	"context"
	"fmt"
	"log/slog"

	"inkpress/internal/config"
	"inkpress/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeSQL  = "sql"
	SchemaModeAuto = "auto"
)

// SchemaMode picks how the schema is managed: versioned SQL migrations for production
// PostgreSQL, GORM AutoMigrate everywhere else.
func SchemaMode(cfg *config.Config) string {
	if cfg.IsProduction() && cfg.DBDriver != "sqlite" {
		return SchemaModeSQL
	}
	return SchemaModeAuto
}

// ApplySchema brings the schema up to date according to SchemaMode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := SchemaMode(cfg)
	middleware.Logger.InfoContext(ctx, "Applying database schema", slog.String("mode", mode), slog.String("env", cfg.Env))

	switch mode {
	case SchemaModeSQL:
		if err := MigrateUp(cfg); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	default:
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// AutoMigrate creates or updates tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}
