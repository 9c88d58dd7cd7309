package main

import (
	"fmt"
	"strconv"

	"inkpress/internal/models"
	"inkpress/internal/repository"
	"inkpress/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newUserCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User account management",
	}

	setRole := &cobra.Command{
		Use:   "set-role [user-id] [role]",
		Short: "Change a user's role (user, author, moderator, admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user ID %q", args[0])
			}
			return env.withDB(cmd.Context(), func(db *gorm.DB) error {
				users := service.NewUserService(repository.NewUserRepository(db))
				// The operator acts outside any account, so no self-demotion check applies.
				user, err := users.SetRole(cmd.Context(), nil, uint(id), args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (ID: %d) is now %s\n", user.Username, user.ID, user.Role)
				return nil
			})
		},
	}

	var role string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally filtered by role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withDB(cmd.Context(), func(db *gorm.DB) error {
				users := service.NewUserService(repository.NewUserRepository(db))
				page := repository.Page{Limit: 1000}
				var (
					found []models.User
					err   error
				)
				if role != "" {
					found, err = users.ListByRole(cmd.Context(), role, page)
				} else {
					found, err = users.ListUsers(cmd.Context(), page)
				}
				if err != nil {
					return err
				}
				if len(found) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
					return nil
				}
				for _, u := range found {
					fmt.Fprintf(cmd.OutOrStdout(), "ID: %d | %s | %s | %s\n", u.ID, u.Username, u.Email, u.Role)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&role, "role", "", "only list users with this role")

	cmd.AddCommand(setRole, list)
	return cmd
}
