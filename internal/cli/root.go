package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/response"
	"barangay-registry/internal/infrastructure/config"
)

// ErrReported marks a failure whose envelope was already printed
var ErrReported = errors.New("error reported")

type commandDeps struct {
	out  io.Writer
	in   io.Reader
	cfg  *config.Config
	open func(*config.Config) (*container.ServiceContainer, error)
}

// NewRootCommand builds the registry command tree on cfg
func NewRootCommand(out io.Writer, cfg *config.Config) *cobra.Command {
	return newRootCommand(commandDeps{
		out:  out,
		in:   os.Stdin,
		cfg:  cfg,
		open: container.NewServiceContainer,
	})
}

func newRootCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "registry",
		Short:         "Barangay household and resident registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(deps.out)
	cmd.SetErr(deps.out)

	cmd.AddCommand(
		newAdminCommand(deps),
		newHouseholdCommand(deps),
		newResidentCommand(deps),
		newUserCommand(deps),
		newSearchCommand(deps),
		newStatsCommand(deps),
		newReindexAgesCommand(deps),
		newInfoCommand(deps),
	)
	return cmd
}

// withContainer opens the store, runs fn and prints its result as an envelope
func withContainer(ctx context.Context, deps commandDeps, fn func(ctx context.Context, c *container.ServiceContainer) (interface{}, error)) error {
	c, err := deps.open(deps.cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	data, err := fn(ctx, c)
	return render(deps.out, data, err)
}

func render(out io.Writer, data interface{}, err error) error {
	var resp response.Response
	if err != nil {
		_, resp = response.FromError(err)
	} else {
		_, resp = response.Success(data)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return encErr
	}
	if err != nil {
		return ErrReported
	}
	return nil
}

// decodeInput reads one JSON document from path, or from stdin when path is "-"
func decodeInput(deps commandDeps, path string, v interface{}) error {
	var r io.Reader
	if path == "-" {
		r = deps.in
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func paginationFlags(cmd *cobra.Command, page, limit *int) {
	cmd.Flags().IntVar(page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(limit, "limit", 10, "Items per page")
}

// found turns an absent record into a not-found error for display
func found[T any](v *T, err error, c int, entity, id string) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.NotFound(c, entity, id)
	}
	return v, nil
}
