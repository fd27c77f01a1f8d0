package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/queue"
)

// inflight is a fetched message whose envelope has not been resolved yet
type inflight struct {
	msg  kafka.Message
	done bool
}

// KafkaSource reads track requests from a Kafka consumer group.
//
// Kafka keeps one committed offset per partition, so envelopes resolved out of
// order are only committed once every earlier message of the partition is resolved.
// A nacked message is requeued to the end of the topic before its offset counts as
// resolved. If the requeue fails the partition stops committing, and the message and
// everything after it are fetched again after a restart or rebalance.
type KafkaSource struct {
	reader   queue.MessageReader
	requeuer queue.MessageRequeuer
	parser   MessageParser
	log      *zap.Logger

	mu         sync.Mutex
	partitions map[int][]*inflight
}

// NewKafkaSource creates a new Kafka envelope source. With a nil requeuer a
// nacked message is logged and dropped.
func NewKafkaSource(reader queue.MessageReader, requeuer queue.MessageRequeuer, parser MessageParser, log *zap.Logger) *KafkaSource {
	return &KafkaSource{
		reader:     reader,
		requeuer:   requeuer,
		parser:     parser,
		log:        log,
		partitions: make(map[int][]*inflight),
	}
}

// Start fetches messages and outputs envelopes until ctx is done, then closes out
func (s *KafkaSource) Start(ctx context.Context, out chan<- *Envelope) {
	defer close(out)

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("Kafka source shutting down")
				return
			}
			s.log.Error("Failed to fetch message from Kafka", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		entry := s.track(msg)

		req, err := s.parser.Parse(msg.Value)
		if err != nil {
			s.log.Warn("Failed to parse message, committing it",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			if err := s.resolve(ctx, entry); err != nil {
				s.log.Error("Failed to commit malformed message", zap.Error(err))
			}
			continue
		}

		envelope := NewEnvelope(req, s.commit(entry), s.release(entry))

		select {
		case <-ctx.Done():
			return
		case out <- envelope:
		}
	}
}

// track registers a fetched message. An offset at or below the last tracked one
// means the partition was rewound by a rebalance, so older entries are forgotten.
func (s *KafkaSource) track(msg kafka.Message) *inflight {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.partitions[msg.Partition]
	if n := len(pending); n > 0 && msg.Offset <= pending[n-1].msg.Offset {
		s.log.Info("Kafka partition rewound, resetting commit tracking",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset))
		pending = nil
	}

	entry := &inflight{msg: msg}
	s.partitions[msg.Partition] = append(pending, entry)
	return entry
}

// resolve marks entry done and commits the highest offset of its partition
// below which every message is done. The lock is held across the commit so
// commits of one partition never go backwards.
func (s *KafkaSource) resolve(ctx context.Context, entry *inflight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.done = true

	partition := entry.msg.Partition
	pending := s.partitions[partition]
	var last *inflight
	for len(pending) > 0 && pending[0].done {
		last = pending[0]
		pending = pending[1:]
	}
	if len(pending) == 0 {
		pending = nil
	}
	s.partitions[partition] = pending

	if last == nil {
		return nil
	}
	if err := s.reader.CommitMessages(ctx, last.msg); err != nil {
		return fmt.Errorf("failed to commit offset %d on partition %d: %w", last.msg.Offset, partition, err)
	}
	return nil
}

func (s *KafkaSource) commit(entry *inflight) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.resolve(ctx, entry)
	}
}

func (s *KafkaSource) release(entry *inflight) func(context.Context) error {
	return func(ctx context.Context) error {
		msg := entry.msg
		if s.requeuer == nil {
			s.log.Warn("Dropping nacked Kafka message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			return s.resolve(ctx, entry)
		}

		if err := s.requeuer.Requeue(ctx, msg); err != nil {
			s.log.Error("Failed to requeue nacked Kafka message, holding partition commits",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			return err
		}
		return s.resolve(ctx, entry)
	}
}
