package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/logger"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/spf13/cobra"
)

// opener is swapped in tests.
var opener = storage.New

func newRootCmd() *cobra.Command {
	var (
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:           "setup-db",
		Short:         "Create the student indexes",
		Long:          "Ensure the name, father_name, email and roll_number indexes exist on the configured storage backend.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log := logger.New(cfg.Env)
			if err := setup(cmd.Context(), cfg, timeout, log); err != nil {
				log.Error("database setup failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the configuration YAML file (default $CONFIG_PATH)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the setup run")

	return cmd
}

func setup(ctx context.Context, cfg *config.Config, timeout time.Duration, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store, err := opener(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("connected", slog.String("driver", cfg.Storage.Driver))

	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	log.Info("indexes created", slog.Any("fields", types.StudentIndexes))
	log.Info("database setup completed successfully")
	return nil
}
