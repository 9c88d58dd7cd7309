package main

import (
	"context"
	"fmt"
	"io"

	"inkpress/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cliEnv carries the process dependencies so tests can swap the database.
type cliEnv struct {
	loadConfig func() (*config.Config, error)
	openDB     func(ctx context.Context, cfg *config.Config) (*gorm.DB, error)
	out        io.Writer
}

func (e *cliEnv) config() (*config.Config, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withDB opens the database for the duration of fn.
func (e *cliEnv) withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	db, err := e.openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(db)
}

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "inkctl",
		Short: "inkctl - Inkpress operator tool",
		Long: `inkctl manages an Inkpress deployment. It reads the same environment
and config file as the API server.

Use "inkctl [command] --help" for details on each command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.out)
	root.AddCommand(newMigrateCmd(env), newUserCmd(env), newCategoryCmd(env))
	return root
}
