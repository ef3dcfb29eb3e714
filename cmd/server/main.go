package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mutua-sr/apptwo-sub001/internal/app"
	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
	"github.com/Mutua-sr/apptwo-sub001/internal/config"
	"github.com/Mutua-sr/apptwo-sub001/internal/log"
	"github.com/Mutua-sr/apptwo-sub001/internal/store/sqlite"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "apptwo-realtime",
		Short: "Realtime presence, messaging and call coordination server",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the coordination server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLogger := log.New("info")
			cfg, path, err := config.Load(bootstrapLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete ended and expired call sessions, print the count",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New("warn")
			cfg, _, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			service := calls.New(st, noopNotifier{}, allowAll{}, cfg.CallRetention, logger)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			deleted, err := service.CleanupSessions(ctx)
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			fmt.Printf("deleted %d call session(s)\n", deleted)
			return nil
		},
	}

	root.AddCommand(serve, cleanup)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
