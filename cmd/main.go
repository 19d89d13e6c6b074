package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/app"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/db"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pos-core",
		Short:         "Multi-tenant POS order, payment and realtime service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedProvidersCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and realtime server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			theDB, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if err := db.AutoMigrateAll(theDB); err != nil {
				return err
			}
			log.Info("Schema migrated", "driver", cfg.DB.Driver)
			return nil
		},
	}
}

func newSeedProvidersCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-providers",
		Short: "Upsert tenant payment provider configuration from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			pf, err := app.LoadProvidersFile(file)
			if err != nil {
				return err
			}
			theDB, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if err := db.AutoMigrateAll(theDB); err != nil {
				return err
			}
			n, err := pf.Seed(cmd.Context(), log, app.NewRepos(theDB, log))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d provider configs\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "providers.yaml", "providers YAML file")
	return cmd
}

func bootstrap() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(parent context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.Run(ctx)
}
