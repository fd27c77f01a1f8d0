package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/provider"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
	"github.com/BarkinBalci/attribution-service/internal/tracking"
)

// collectSink keeps the attempts of one sweep so they can be written in a single batch
type collectSink struct {
	mu       sync.Mutex
	attempts []*domain.DeliveryAttempt
}

func (s *collectSink) Record(attempt *domain.DeliveryAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
}

func sweepCmd() *cobra.Command {
	var (
		batchSize   int
		maxAttempts int
		noAudit     bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one retry sweep now",
		Long: `Select up to --batch-size pending or failed events, oldest first, and deliver
each of them once. Attempts are written to the ClickHouse delivery log unless --no-audit is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, err := open(ctx, !noAudit)
			if err != nil {
				return err
			}
			defer e.Close()

			cfg := tracking.SchedulerConfig{
				Interval:    e.cfg.Scheduler.Interval,
				BatchSize:   e.cfg.Scheduler.BatchSize,
				MaxAttempts: e.cfg.Scheduler.MaxAttempts,
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = batchSize
			}
			if cmd.Flags().Changed("max-attempts") {
				cfg.MaxAttempts = maxAttempts
			}

			providerClient := provider.NewClient(e.cfg.Provider, e.log)
			sink := &collectSink{}
			scheduler := tracking.NewScheduler(
				postgres.NewEventRepository(e.postgres, e.log),
				delivery.NewPipeline(providerClient, e.log),
				providerClient,
				sink,
				cfg,
				e.log,
			)

			result, sweepErr := scheduler.Sweep(ctx)

			// attempts made before an aborted sweep are still logged
			if !noAudit && len(sink.attempts) > 0 {
				if _, err := e.ch.InsertBatch(context.WithoutCancel(ctx), sink.attempts); err != nil {
					e.log.Error("Failed to write delivery attempts", zap.Error(err))
				}
			}

			if sweepErr != nil {
				return fmt.Errorf("sweep failed: %w", sweepErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "selected=%d sent=%d failed=%d skipped=%d duration=%s\n",
				result.Selected, result.Sent, result.Failed, result.Skipped, result.Duration)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "events to select (default SCHEDULER_BATCH_SIZE)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "skip events with this many attempts, 0 for no limit")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "don't write attempts to ClickHouse")

	return cmd
}
