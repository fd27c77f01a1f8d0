package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter batches delivery attempts and writes them to the delivery log
type BatchWriter struct {
	repository repository.DeliveryLogRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.DeliveryLogRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 1
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = time.Second
	}
	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start collects attempts from in and writes them when the batch is full or the flush timeout passes.
// On shutdown, attempts already buffered in the channel are written in a final batch.
func (w *BatchWriter) Start(ctx context.Context, in <-chan *domain.DeliveryAttempt) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*domain.DeliveryAttempt, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			batch = drain(in, batch)
			if len(batch) > 0 {
				w.log.Info("Flushing final batch", zap.Int("attempt_count", len(batch)))
				w.writeBatch(context.WithoutCancel(ctx), batch)
			}
			return

		case attempt, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				if len(batch) > 0 {
					w.log.Info("Flushing final batch", zap.Int("attempt_count", len(batch)))
					w.writeBatch(context.WithoutCancel(ctx), batch)
				}
				return
			}

			batch = append(batch, attempt)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Debug("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*domain.DeliveryAttempt, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Debug("Batch timeout reached", zap.Int("attempt_count", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*domain.DeliveryAttempt, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// writeBatch inserts attempts. The delivery log is an audit trail, so a failed
// batch is logged and dropped rather than retried.
func (w *BatchWriter) writeBatch(ctx context.Context, attempts []*domain.DeliveryAttempt) {
	insertedCount, err := w.repository.InsertBatch(ctx, attempts)
	if err != nil {
		w.log.Error("Failed to insert delivery attempts",
			zap.Error(err),
			zap.Int("attempt_count", len(attempts)))
		return
	}

	if insertedCount != len(attempts) {
		w.log.Warn("Partial insert success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(attempts)))
		return
	}

	w.log.Info("Successfully inserted delivery attempts", zap.Int("count", insertedCount))
}

func drain(in <-chan *domain.DeliveryAttempt, batch []*domain.DeliveryAttempt) []*domain.DeliveryAttempt {
	for {
		select {
		case attempt, ok := <-in:
			if !ok {
				return batch
			}
			batch = append(batch, attempt)
		default:
			return batch
		}
	}
}
