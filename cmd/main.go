package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/storybook-backend/internal/app"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
	"github.com/yungbote/storybook-backend/internal/platform/shutdown"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storybook",
		Short:         "Personalized illustrated children's book API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.LoadConfig()
			if port != "" {
				cfg.Port = port
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, stop := shutdown.NotifyContext(cmd.Context())
			defer stop()

			a, err := app.New(ctx, log, cfg)
			if err != nil {
				log.Error("App init failed", "error", err)
				log.Sync()
				return err
			}
			defer a.Close()

			if err := a.Run(ctx); err != nil {
				log.Error("Server exited", "error", err)
				return err
			}
			log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(*cobra.Command, []string) error {
			cfg := app.LoadConfig()
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
			if err := app.Migrate(log, cfg); err != nil {
				log.Error("Migration failed", "error", err)
				return err
			}
			return nil
		},
	}
}
