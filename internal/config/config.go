package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	QueueBackendSQS   = "sqs"
	QueueBackendKafka = "kafka"
)

type Config struct {
	Service     Service     `envconfig:"SERVICE"`
	Queue       Queue       `envconfig:"QUEUE"`
	SQS         SQS         `envconfig:"SQS"`
	Kafka       Kafka       `envconfig:"KAFKA"`
	Postgres    Postgres    `envconfig:"POSTGRES"`
	ClickHouse  ClickHouse  `envconfig:"CLICKHOUSE"`
	Redis       Redis       `envconfig:"REDIS"`
	Attribution Attribution `envconfig:"ATTRIBUTION"`
	Provider    Provider    `envconfig:"PROVIDER"`
	Scheduler   Scheduler   `envconfig:"SCHEDULER"`
	Dispatcher  Dispatcher  `envconfig:"DISPATCHER"`
	Worker      Worker      `envconfig:"WORKER"`
	Webhook     Webhook     `envconfig:"WEBHOOK"`
	GeoIP       GeoIP       `envconfig:"GEOIP"`
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"localhost:8080"`
}

type Queue struct {
	Backend string `envconfig:"BACKEND" default:"sqs"`
}

type SQS struct {
	Endpoint string `envconfig:"ENDPOINT"`
	QueueURL string `envconfig:"QUEUE_URL"`
	Region   string `envconfig:"REGION" default:"us-east-1"`
}

type Kafka struct {
	Brokers       []string `envconfig:"BROKERS"`
	Topic         string   `envconfig:"TOPIC" default:"attribution.track-requests"`
	ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"attribution-worker"`
}

type Postgres struct {
	DSN      string `envconfig:"DSN" required:"true"`
	MaxConns int32  `envconfig:"MAX_CONNS" default:"10"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST" required:"true"`
	Port            string `envconfig:"PORT" default:"9000"`
	Database        string `envconfig:"DB" default:"default"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Redis struct {
	Addr     string `envconfig:"ADDR" required:"true"`
	Password string `envconfig:"PASSWORD" default:""`
	DB       int    `envconfig:"DB" default:"0"`
}

type Attribution struct {
	TTL time.Duration `envconfig:"TTL" default:"720h"`
}

// Provider configures the ads conversions API.
type Provider struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"https://graph.facebook.com"`
	APIVersion  string        `envconfig:"API_VERSION" default:"v17.0"`
	PixelID     string        `envconfig:"PIXEL_ID"`
	AccessToken string        `envconfig:"ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RPS         float64       `envconfig:"RPS" default:"10"`
	Burst       int           `envconfig:"BURST" default:"10"`
}

// Validate reports missing credentials. It is checked where events are sent,
// not at startup, so the API can run without provider access.
func (p Provider) Validate() error {
	var errs []error
	if p.AccessToken == "" {
		errs = append(errs, errors.New("PROVIDER_ACCESS_TOKEN is not set"))
	}
	if p.PixelID == "" {
		errs = append(errs, errors.New("PROVIDER_PIXEL_ID is not set"))
	}
	return errors.Join(errs...)
}

type Scheduler struct {
	Interval    time.Duration `envconfig:"INTERVAL" default:"60s"`
	BatchSize   int           `envconfig:"BATCH_SIZE" default:"50"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"0"`
}

type Dispatcher struct {
	QueueSize int `envconfig:"QUEUE_SIZE" default:"100"`
	Workers   int `envconfig:"WORKERS" default:"4"`
}

type Worker struct {
	BatchSizeMax    int    `envconfig:"BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec int    `envconfig:"BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"HEALTH_CHECK_PORT" default:"8081"`
}

type Webhook struct {
	Key       string        `envconfig:"KEY"`
	PerMinute int           `envconfig:"PER_MINUTE" default:"60"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type GeoIP struct {
	DatabasePath string `envconfig:"DATABASE_PATH"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Queue.Backend {
	case QueueBackendSQS:
		if c.SQS.QueueURL == "" {
			return errors.New("SQS_QUEUE_URL is required for the sqs queue backend")
		}
	case QueueBackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka queue backend")
		}
	default:
		return fmt.Errorf("unsupported QUEUE_BACKEND %q (supported: sqs, kafka)", c.Queue.Backend)
	}

	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("SCHEDULER_BATCH_SIZE must be positive, got %d", c.Scheduler.BatchSize)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.Scheduler.Interval)
	}
	return nil
}
