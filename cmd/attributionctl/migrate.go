package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
)

func migrateCmd() *cobra.Command {
	var skipClickHouse bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres and ClickHouse schemas",
		Long: `Create the tables the service needs if they don't exist.

Postgres gets the events, checkout_settings and webhook_logs tables.
ClickHouse gets the delivery_attempts table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := open(ctx, !skipClickHouse)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := postgres.NewEventRepository(e.postgres, e.log).InitSchema(ctx); err != nil {
				return err
			}
			if err := postgres.NewSettingsRepository(e.postgres, e.log).InitSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "postgres: schema ready")

			if skipClickHouse {
				return nil
			}
			if err := e.ch.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "clickhouse: schema ready")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipClickHouse, "skip-clickhouse", false, "only migrate Postgres")

	return cmd
}
