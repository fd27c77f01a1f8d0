package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/segmentio/kafka-go"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// QueuePublisher defines the interface for publishing track requests to a queue
type QueuePublisher interface {
	PublishTrackRequest(ctx context.Context, req *domain.TrackRequest) error
}

// QueueConsumer defines the interface for consuming messages from SQS
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, input *sqs.ChangeMessageVisibilityInput) (*sqs.ChangeMessageVisibilityOutput, error)
	QueueURL() string
}

// MessageReader defines the interface for consuming messages from a Kafka consumer group
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageRequeuer writes a consumed Kafka message back to its topic
type MessageRequeuer interface {
	Requeue(ctx context.Context, msg kafka.Message) error
}
