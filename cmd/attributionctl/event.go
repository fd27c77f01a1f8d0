package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BarkinBalci/attribution-service/internal/repository"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
)

func eventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event [event_id]",
		Short: "Print a stored event as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer e.Close()

			event, err := postgres.NewEventRepository(e.postgres, e.log).GetByID(ctx, args[0])
			if errors.Is(err, repository.ErrEventNotFound) {
				return fmt.Errorf("event %s not found", args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(event)
		},
	}
}
