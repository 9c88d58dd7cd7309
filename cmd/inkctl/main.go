// Command inkctl is the operator CLI for Inkpress: schema migrations,
// role management and category bootstrapping.
package main

import (
	"context"
	"fmt"
	"os"

	"inkpress/internal/config"
	"inkpress/internal/database"

	"gorm.io/gorm"
)

func main() {
	env := &cliEnv{
		loadConfig: config.LoadConfig,
		openDB: func(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
			return database.Connect(ctx, cfg)
		},
		out: os.Stdout,
	}
	if err := newRootCmd(env).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
