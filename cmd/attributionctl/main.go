package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "attributionctl",
		Short:         "Operator commands for the attribution service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(eventCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds the connections a command opened
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	postgres *postgres.Client
	ch       *clickhouse.Repository
}

// open loads the configuration and connects to Postgres, and to ClickHouse when withClickHouse is set
func open(ctx context.Context, withClickHouse bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	pgClient, err := postgres.NewClient(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, postgres: pgClient}
	if !withClickHouse {
		return e, nil
	}

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		pgClient.Close()
		return nil, err
	}
	e.ch = clickhouse.NewRepository(chClient, log)
	return e, nil
}

func (e *env) Close() {
	if e.ch != nil {
		if err := e.ch.Close(); err != nil {
			e.log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}
	e.postgres.Close()
	_ = e.log.Sync()
}
