package consumer

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/queue"
)

const defaultBufferSize = 100

// SQSSource chains the SQS receiver and parser stages
type SQSSource struct {
	receiver *Receiver
	parser   *ParserStage
}

// NewSQSSource creates an envelope source reading from SQS
func NewSQSSource(queueConsumer queue.QueueConsumer, parser MessageParser, log *zap.Logger) *SQSSource {
	return &SQSSource{
		receiver: NewReceiver(queueConsumer, ReceiverConfig{
			MaxMessages:     10,
			WaitTimeSeconds: 20,
			BufferSize:      defaultBufferSize,
		}, log),
		parser: NewParserStage(queueConsumer, parser, log),
	}
}

// Start receives and parses messages into out until ctx is done
func (s *SQSSource) Start(ctx context.Context, out chan<- *Envelope) {
	messageChan := make(chan types.Message, s.receiver.config.BufferSize)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		s.parser.Start(ctx, messageChan, out)
	}()

	wg.Wait()
}

// Consumer orchestrates a pipeline of stages that turns queued track requests into tracked events
type Consumer struct {
	source      EnvelopeSource
	dispatcher  TaskDispatcher
	batchWriter *BatchWriter
	attempts    <-chan *domain.DeliveryAttempt
	log         *zap.Logger
}

// NewConsumer creates a new consumer. attempts is the channel the tracking sink writes to.
func NewConsumer(source EnvelopeSource, dispatcher TaskDispatcher, batchWriter *BatchWriter, attempts <-chan *domain.DeliveryAttempt, log *zap.Logger) *Consumer {
	return &Consumer{
		source:      source,
		dispatcher:  dispatcher,
		batchWriter: batchWriter,
		attempts:    attempts,
		log:         log,
	}
}

// Start runs the pipeline until ctx is done. The delivery log writer stops last
// so attempts recorded by in-flight tasks are still written.
func (c *Consumer) Start(ctx context.Context) error {
	envelopeChan := make(chan *Envelope, defaultBufferSize)

	writerCtx, stopWriter := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWriter()

	writerDone := make(chan struct{})

	// Stage 4: Batch delivery attempts into the delivery log
	go func() {
		defer close(writerDone)
		c.batchWriter.Start(writerCtx, c.attempts)
	}()

	var wg sync.WaitGroup
	wg.Add(3)

	// Stage 1: Receive and parse messages into envelopes
	go func() {
		defer wg.Done()
		c.source.Start(ctx, envelopeChan)
	}()

	// Stage 2: Hand envelopes to the dispatcher
	go func() {
		defer wg.Done()
		c.dispatch(ctx, envelopeChan)
	}()

	// Stage 3: Track, deliver and ack
	go func() {
		defer wg.Done()
		c.dispatcher.Run(ctx)
	}()

	wg.Wait()

	stopWriter()
	<-writerDone
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-in:
			if !ok {
				c.log.Info("Dispatch stage input channel closed")
				return
			}

			if err := c.dispatcher.Submit(ctx, envelope); err != nil {
				c.log.Warn("Failed to submit envelope, releasing it",
					zap.String("event_id", envelope.Request().EventID),
					zap.Error(err))
				if err := envelope.Nack(context.WithoutCancel(ctx)); err != nil {
					c.log.Error("Failed to nack envelope", zap.Error(err))
				}
			}
		}
	}
}
