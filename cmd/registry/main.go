package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"barangay-registry/internal/cli"
	"barangay-registry/internal/infrastructure/config"
	"barangay-registry/pkg/logger"
)

func main() {
	// the environment may already carry the settings
	envErr := godotenv.Load()

	cfg := config.GetConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		os.Exit(2)
	}

	if err := logger.SetupLogger(logger.Options{
		Dir:       cfg.LogDir,
		Level:     cfg.LogLevel,
		MaxSizeMB: cfg.LogMaxSizeMB,
		MaxFiles:  cfg.LogMaxFiles,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Warning("could not load .env file: %v", envErr)
	}

	if err := cli.NewRootCommand(os.Stdout, cfg).Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintf(os.Stderr, "registry: %v\n", err)
		}
		os.Exit(1)
	}
}
