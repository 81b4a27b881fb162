package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/domain/services"
	"barangay-registry/pkg/logger"
)

func newAdminCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator account",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the admin user when the username is unclaimed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				created, err := c.Users().EnsureAdmin(ctx, deps.cfg.DefaultAdminPassword, deps.cfg.DefaultAdminEmail)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"username": services.AdminUsername, "created": created}, nil
			})
		},
	})
	return cmd
}

func newSearchCommand(deps commandDeps) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Substring search over resident names, addresses and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				switch scope {
				case "households":
					return c.Search().SearchHouseholds(ctx, args[0])
				case "residents":
					return c.Search().SearchResidents(ctx, args[0])
				}
				return c.Search().Search(ctx, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&scope, "only", "", "Limit to households or residents")
	return cmd
}

func newStatsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Household and demographic aggregates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				hs, err := c.Stats().GetHouseholdStats(ctx)
				if err != nil {
					return nil, err
				}
				rs, err := c.Stats().GetDemographicStats(ctx)
				if err != nil {
					return nil, err
				}
				return struct {
					Households   *models.HouseholdStats `json:"households"`
					Demographics *models.ResidentStats  `json:"demographics"`
				}{hs, rs}, nil
			})
		},
	}
}

func newReindexAgesCommand(deps commandDeps) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "reindex-ages",
		Short: "Move residents whose age changed to their current age index entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if every <= 0 {
				return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
					moved, err := c.Residents().ReindexAges(ctx)
					return map[string]int{"moved": moved}, err
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			c, err := deps.open(deps.cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			if deps.cfg.MetricsAddr != "" {
				go serveMetrics(ctx, deps.cfg.MetricsAddr)
			}
			return runEvery(ctx, every, func(ctx context.Context) {
				moved, err := c.Residents().ReindexAges(ctx)
				if err != nil {
					logger.Error("age reindex failed: %v", err)
					return
				}
				logger.Info("age reindex finished: moved=%d", moved)
			})
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "Repeat at this interval until interrupted")
	return cmd
}

// runEvery runs fn immediately and then on each tick until ctx ends
func runEvery(ctx context.Context, every time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics endpoint listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed: %v", err)
	}
}

func newInfoCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print runtime and store connection information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), deps, func(ctx context.Context, c *container.ServiceContainer) (interface{}, error) {
				return systemInfo(c), nil
			})
		},
	}
}

func systemInfo(c *container.ServiceContainer) map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := map[string]interface{}{
		"goVersion":  runtime.Version(),
		"numCPU":     runtime.NumCPU(),
		"goroutines": runtime.NumGoroutine(),
		"allocMB":    m.Alloc / 1024 / 1024,
		"sysMB":      m.Sys / 1024 / 1024,
		"numGC":      m.NumGC,
		"backend":    c.GetPool().Backend,
	}
	if stats, err := c.GetPool().Stats(); err == nil {
		info["pool"] = stats
	}
	return info
}
