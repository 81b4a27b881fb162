package cli

import (
	"context"

	"github.com/spf13/cobra"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/code"
)

func newUserCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User accounts",
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in models.UserInput
			if err := decodeInput(deps, file, &in); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				id, err := c.Users().CreateUser(ctx, in)
				if err != nil {
					return nil, err
				}
				return map[string]string{"id": id}, nil
			})
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "-", "JSON file, - for stdin")

	var patchFile string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Apply a JSON patch to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.UserPatch
			if err := decodeInput(deps, patchFile, &patch); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return c.Users().UpdateUser(ctx, args[0], patch)
			})
		},
	}
	update.Flags().StringVarP(&patchFile, "file", "f", "-", "JSON file, - for stdin")

	var byUsername, byEmail bool
	get := &cobra.Command{
		Use:   "get <id|username|email>",
		Short: "Show a user without credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				var (
					u   *models.User
					err error
				)
				switch {
				case byUsername:
					u, err = c.Users().GetUserByUsername(ctx, args[0])
				case byEmail:
					u, err = c.Users().GetUserByEmail(ctx, args[0])
				default:
					u, err = c.Users().GetUserByID(ctx, args[0])
				}
				return found(u, err, code.ErrUserNotFound, "user", args[0])
			})
		},
	}
	get.Flags().BoolVar(&byUsername, "username", false, "Look the user up by username")
	get.Flags().BoolVar(&byEmail, "email", false, "Look the user up by email")
	get.MarkFlagsMutuallyExclusive("username", "email")

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return c.Users().GetAllUsers(ctx, models.PaginationQuery{Page: page, Limit: limit})
			})
		},
	}
	paginationFlags(list, &page, &limit)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user and release its username and email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return nil, c.Users().DeleteUser(ctx, args[0])
			})
		},
	}

	var password string
	login := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a password and record the login time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				p, err := c.Users().Authenticate(ctx, args[0], password)
				if err != nil || p != nil {
					return p, err
				}
				return map[string]bool{"authenticated": false}, nil
			})
		},
	}
	login.Flags().StringVar(&password, "password", "", "Password to check")

	cmd.AddCommand(create, get, update, list, del, login)
	return cmd
}
