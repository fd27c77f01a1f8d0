package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Publisher writes track requests to a Kafka topic, keyed by event id
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(cfg config.Kafka, log *zap.Logger) *Publisher {
	log.Info("Kafka publisher created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		log: log,
	}
}

// PublishTrackRequest publishes a track request and waits for the broker acknowledgment
func (p *Publisher) PublishTrackRequest(ctx context.Context, req *domain.TrackRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal track request: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.EventID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_name", Value: []byte(req.EventName)},
		},
	})
	if err != nil {
		p.log.Error("Failed to write message to Kafka",
			zap.String("event_id", req.EventID),
			zap.Error(err))
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.log.Info("Track request published to Kafka",
		zap.String("event_id", req.EventID),
		zap.String("event_name", string(req.EventName)))
	return nil
}

// Requeue appends a consumed message to the end of the topic again. Topic,
// partition and offset are left for the writer to assign.
func (p *Publisher) Requeue(ctx context.Context, msg kafka.Message) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	})
	if err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}

	p.log.Info("Message requeued to Kafka",
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))
	return nil
}

// Close flushes pending writes and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewReader creates a consumer group reader for the track request topic
func NewReader(cfg config.Kafka, log *zap.Logger) *kafka.Reader {
	log.Info("Kafka reader created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.ConsumerGroup))

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
}
