package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/consumer"
	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/provider"
	"github.com/BarkinBalci/attribution-service/internal/queue/kafka"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
	"github.com/BarkinBalci/attribution-service/internal/repository/redis"
	"github.com/BarkinBalci/attribution-service/internal/tracking"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting worker service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("queue_backend", cfg.Queue.Backend))

	ctx := context.Background()

	// Initialize Postgres event store
	pgClient, err := postgres.NewClient(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	eventRepo := postgres.NewEventRepository(pgClient, log)
	if err := eventRepo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize events schema", zap.Error(err))
	}

	// Initialize ClickHouse delivery log
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	deliveryLog := clickhouse.NewRepository(chClient, log)
	defer func() {
		if err := deliveryLog.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()
	if err := deliveryLog.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize delivery log schema", zap.Error(err))
	}

	// Initialize Redis attribution store
	redisClient, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", zap.Error(err))
		}
	}()
	attributionRepo := redis.NewAttributionRepository(redisClient, cfg.Attribution.TTL, log)
	capturer := attribution.NewCapturer(attributionRepo, log)

	// Initialize delivery
	providerClient := provider.NewClient(cfg.Provider, log)
	if err := providerClient.Configured(); err != nil {
		log.Warn("Ads provider is not configured, events will stay pending", zap.Error(err))
	}
	pipeline := delivery.NewPipeline(providerClient, log)

	attempts := make(chan *domain.DeliveryAttempt, cfg.Worker.BatchSizeMax*2)
	sink := tracking.NewChannelSink(attempts, log)

	recorder := tracking.NewRecorder(eventRepo, capturer, pipeline, sink, log)
	dispatcher := tracking.NewDispatcher(recorder, cfg.Dispatcher.QueueSize, cfg.Dispatcher.Workers, log)
	scheduler := tracking.NewScheduler(eventRepo, pipeline, providerClient, sink, tracking.SchedulerConfig{
		Interval:    cfg.Scheduler.Interval,
		BatchSize:   cfg.Scheduler.BatchSize,
		MaxAttempts: cfg.Scheduler.MaxAttempts,
	}, log)

	// Initialize queue source
	var source consumer.EnvelopeSource
	switch cfg.Queue.Backend {
	case config.QueueBackendKafka:
		reader := kafka.NewReader(cfg.Kafka, log)
		defer func() {
			if err := reader.Close(); err != nil {
				log.Error("Failed to close Kafka reader", zap.Error(err))
			}
		}()
		requeuer := kafka.NewPublisher(cfg.Kafka, log)
		defer func() {
			if err := requeuer.Close(); err != nil {
				log.Error("Failed to close Kafka publisher", zap.Error(err))
			}
		}()
		source = consumer.NewKafkaSource(reader, requeuer, consumer.NewJSONRequestParser(), log)
	default:
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		source = consumer.NewSQSSource(sqsClient, consumer.NewJSONRequestParser(), log)
	}

	batchWriter := consumer.NewBatchWriter(deliveryLog, consumer.BatchWriterConfig{
		MaxBatchSize: cfg.Worker.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Worker.BatchTimeoutSec) * time.Second,
	}, log)
	c := consumer.NewConsumer(source, dispatcher, batchWriter, attempts, log)

	// Start health check endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		for name, ping := range map[string]func(context.Context) error{
			"postgres":   eventRepo.Ping,
			"clickhouse": deliveryLog.Ping,
			"redis":      attributionRepo.Ping,
		} {
			if err := ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	healthServer := &http.Server{
		Addr:              ":" + cfg.Worker.HealthCheckPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health check server starting", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start retry scheduler
	handle := scheduler.Start(workerCtx)

	// Start consumer
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		log.Info("Consumer starting")
		if err := c.Start(workerCtx); err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker gracefully")
	drain(handle, scheduler, cancel, consumerDone)

	processed, failed := dispatcher.Stats()
	log.Info("Worker stopped",
		zap.Int64("processed", processed),
		zap.Int64("failed", failed),
		zap.Int64("dropped_attempts", sink.Dropped()))

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down health check server", zap.Error(err))
	}
}

// drain stops the sweep loop and waits for running sweeps before cancelling
// the consumer, so the batch writer still reads the attempts those sweeps record.
func drain(handle interface{ Stop() }, sweeps interface{ Wait() }, cancel context.CancelFunc, consumerDone <-chan struct{}) {
	handle.Stop()
	sweeps.Wait()
	cancel()
	<-consumerDone
}
