package main

import (
	"fmt"

	"inkpress/internal/repository"
	"inkpress/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newCategoryCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Category management",
	}

	categories := func(db *gorm.DB) *service.CategoryService {
		return service.NewCategoryService(repository.NewCategoryRepository(db), repository.NewArticleRepository(db))
	}

	add := &cobra.Command{
		Use:   "add [name...]",
		Short: "Create one or more categories; all are created or none",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withDB(cmd.Context(), func(db *gorm.DB) error {
				created, err := categories(db).CreateCategories(cmd.Context(), args)
				if err != nil {
					return err
				}
				for _, c := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ ID: %d | Name: %s\n", c.ID, c.Name)
				}
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withDB(cmd.Context(), func(db *gorm.DB) error {
				all, err := categories(db).ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range all {
					fmt.Fprintf(cmd.OutOrStdout(), "ID: %d | Name: %s\n", c.ID, c.Name)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
