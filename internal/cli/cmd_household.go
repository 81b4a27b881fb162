package cli

import (
	"context"

	"github.com/spf13/cobra"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/code"
)

func newHouseholdCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Household records",
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a household from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var h models.Household
			if err := decodeInput(deps, file, &h); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				id, err := c.Households().CreateHousehold(ctx, &h)
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
		Short: "Apply a JSON patch to a household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.HouseholdPatch
			if err := decodeInput(deps, patchFile, &patch); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return c.Households().UpdateHousehold(ctx, args[0], patch)
			})
		},
	}
	update.Flags().StringVarP(&patchFile, "file", "f", "-", "JSON file, - for stdin")

	var withResidents bool
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				if withResidents {
					h, err := c.Households().GetHouseholdWithResidents(ctx, args[0])
					return found(h, err, code.ErrHouseholdNotFound, "household", args[0])
				}
				h, err := c.Households().GetHouseholdByID(ctx, args[0])
				return found(h, err, code.ErrHouseholdNotFound, "household", args[0])
			})
		},
	}
	get.Flags().BoolVar(&withResidents, "residents", false, "Include the household members")

	var page, limit int
	var tag string
	list := &cobra.Command{
		Use:   "list",
		Short: "List households",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				if tag != "" {
					return c.Households().GetHouseholdsByTag(ctx, tag)
				}
				return c.Households().GetAllHouseholds(ctx, models.PaginationQuery{Page: page, Limit: limit})
			})
		},
	}
	paginationFlags(list, &page, &limit)
	list.Flags().StringVar(&tag, "tag", "", "Only households carrying this category tag")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a household with no residents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return nil, c.Households().DeleteHousehold(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(create, get, update, list, del)
	return cmd
}
