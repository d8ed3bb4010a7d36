package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/orchard/pkg/db"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/metrics"
	"github.com/doodlesbykumbi/orchard/pkg/server"
	"github.com/doodlesbykumbi/orchard/pkg/server/endpoints"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the orchard application server",
	Long: `Run the orchard application server.

The server requires a database URL (DATABASE_URL or ORCHARD_DATABASE_URL).

By default, database migrations are run on startup. Use --no-migrate to skip.
sqlite databases are created from the models and never migrated.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 8080, "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", "127.0.0.1", "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate && !db.IsSQLite(cfg.DatabaseURL) {
		log.Info("running database migrations")
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	database, err := connect(cfg)
	if err != nil {
		return err
	}

	auditor, closeAudit, err := newAuditor(cfg, database, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	var m *metrics.Metrics
	if cfg.IsMetricsEnabled() {
		m = metrics.New()
	}

	s := server.NewServer(database, cfg, server.Options{
		Logger:  log,
		Metrics: m,
		Auditor: auditor,
	})
	endpoints.RegisterAll(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("running server", "address", "http://"+cfg.Address())
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
