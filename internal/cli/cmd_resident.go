package cli

import (
	"context"

	"github.com/spf13/cobra"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/code"
)

func newResidentCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resident",
		Short: "Resident records",
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a resident from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r models.Resident
			if err := decodeInput(deps, file, &r); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				id, err := c.Residents().CreateResident(ctx, &r)
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
		Short: "Apply a JSON patch to a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ResidentPatch
			if err := decodeInput(deps, patchFile, &patch); err != nil {
				return err
			}
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return c.Residents().UpdateResident(ctx, args[0], patch)
			})
		},
	}
	update.Flags().StringVarP(&patchFile, "file", "f", "-", "JSON file, - for stdin")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				r, err := c.Residents().GetResidentByID(ctx, args[0])
				return found(r, err, code.ErrResidentNotFound, "resident", args[0])
			})
		},
	}

	var (
		page, limit int
		household   string
		tag         string
		age         int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List residents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				switch {
				case household != "":
					return c.Residents().GetResidentsByHousehold(ctx, household)
				case tag != "":
					return c.Residents().GetResidentsByTag(ctx, tag)
				case cmd.Flags().Changed("age"):
					return c.Residents().GetResidentsByAge(ctx, age)
				}
				return c.Residents().GetAllResidents(ctx, models.PaginationQuery{Page: page, Limit: limit})
			})
		},
	}
	paginationFlags(list, &page, &limit)
	list.Flags().StringVar(&household, "household", "", "Only members of this household")
	list.Flags().StringVar(&tag, "tag", "", "Only residents carrying this category tag")
	list.Flags().IntVar(&age, "age", 0, "Only residents filed under this age")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return nil, c.Residents().DeleteResident(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(create, get, update, list, del)
	return cmd
}
