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

	"github.com/BarkinBalci/attribution-service/docs"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/enricher"
	"github.com/BarkinBalci/attribution-service/internal/handler"
	"github.com/BarkinBalci/attribution-service/internal/logger"
	"github.com/BarkinBalci/attribution-service/internal/queue"
	"github.com/BarkinBalci/attribution-service/internal/queue/kafka"
	"github.com/BarkinBalci/attribution-service/internal/queue/sqs"
	"github.com/BarkinBalci/attribution-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/attribution-service/internal/repository/postgres"
	"github.com/BarkinBalci/attribution-service/internal/repository/redis"
	"github.com/BarkinBalci/attribution-service/internal/service"
	"github.com/BarkinBalci/attribution-service/internal/webhook"
)

// @title Attribution Service API
// @version 1.0
// @description Checkout event attribution and ads conversion delivery
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("queue_backend", cfg.Queue.Backend))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize queue publisher
	var publisher queue.QueuePublisher
	switch cfg.Queue.Backend {
	case config.QueueBackendKafka:
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka, log)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error("Failed to close Kafka publisher", zap.Error(err))
			}
		}()
		publisher = kafkaPublisher
	default:
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		publisher = sqsClient
	}

	// Initialize Postgres client
	pgClient, err := postgres.NewClient(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	eventRepo := postgres.NewEventRepository(pgClient, log)
	settingsRepo := postgres.NewSettingsRepository(pgClient, log)
	if err := settingsRepo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize settings schema", zap.Error(err))
	}

	// Initialize ClickHouse client
	clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	deliveryLog := clickhouse.NewRepository(clickhouseClient, log)
	defer func() {
		if err := deliveryLog.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

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

	// Initialize client enrichment
	clientEnricher, err := enricher.New(cfg.GeoIP.DatabasePath, log)
	if err != nil {
		log.Fatal("Failed to create enricher", zap.Error(err))
	}
	defer clientEnricher.Close()

	// Initialize services
	eventService := service.NewEventService(publisher, eventRepo, deliveryLog, clientEnricher, log)
	attributionService := service.NewAttributionService(attribution.NewCapturer(attributionRepo, log), log)
	notifier := webhook.NewNotifier(settingsRepo, webhook.Config{
		Key:       cfg.Webhook.Key,
		PerMinute: cfg.Webhook.PerMinute,
		Timeout:   cfg.Webhook.Timeout,
	}, log)
	webhookService := service.NewWebhookService(notifier, settingsRepo, log)

	// Initialize handler
	h := handler.NewHandler(eventService, attributionService, webhookService, map[string]handler.Pinger{
		"postgres":   eventRepo,
		"clickhouse": deliveryLog,
		"redis":      attributionRepo,
	}, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.APIPort),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}
