package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMessageReader is a mock implementation of queue.MessageReader
type MockMessageReader struct {
	mock.Mock
}

func (m *MockMessageReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockMessageReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockMessageReader) Close() error {
	args := m.Called()
	return args.Error(0)
}

// blockUntilDone makes FetchMessage behave like an idle reader
func blockUntilDone(reader *MockMessageReader) {
	reader.On("FetchMessage", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(kafka.Message{}, context.Canceled).Maybe()
}

func kafkaMessage(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "attribution.track-requests", Partition: 0, Offset: offset, Value: []byte(value)}
}

func TestKafkaSource_Start_EmitsEnvelopes(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	msg := kafkaMessage(7, `{"event_id":"evt-1","event_name":"AddPaymentInfo"}`)
	reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()
	blockUntilDone(reader)
	reader.On("CommitMessages", mock.Anything, []kafka.Message{msg}).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *Envelope, 1)
	go source.Start(ctx, out)

	var envelope *Envelope
	select {
	case envelope = <-out:
	case <-time.After(time.Second):
		t.Fatal("no envelope emitted")
	}

	assert.Equal(t, "evt-1", envelope.Request().EventID)
	require.NoError(t, envelope.Ack(context.Background()))

	cancel()
	_, ok := <-out
	assert.False(t, ok, "out should be closed on shutdown")
	reader.AssertExpectations(t)
}

func TestKafkaSource_Start_CommitsMalformedMessages(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	bad := kafkaMessage(1, `not json`)
	good := kafkaMessage(2, `{"event_id":"evt-2","event_name":"Purchase"}`)
	reader.On("FetchMessage", mock.Anything).Return(bad, nil).Once()
	reader.On("FetchMessage", mock.Anything).Return(good, nil).Once()
	blockUntilDone(reader)
	reader.On("CommitMessages", mock.Anything, []kafka.Message{bad}).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *Envelope, 2)
	go source.Start(ctx, out)

	select {
	case envelope := <-out:
		assert.Equal(t, "evt-2", envelope.Request().EventID)
	case <-time.After(time.Second):
		t.Fatal("no envelope emitted")
	}

	reader.AssertExpectations(t)
}

// MockMessageRequeuer is a mock implementation of queue.MessageRequeuer
type MockMessageRequeuer struct {
	mock.Mock
}

func (m *MockMessageRequeuer) Requeue(ctx context.Context, msg kafka.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// startKafkaSource runs source over msgs and returns their envelopes in fetch order
func startKafkaSource(t *testing.T, reader *MockMessageReader, source *KafkaSource, msgs ...kafka.Message) []*Envelope {
	t.Helper()

	for _, msg := range msgs {
		reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()
	}
	blockUntilDone(reader)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out := make(chan *Envelope, len(msgs))
	go source.Start(ctx, out)

	envelopes := make([]*Envelope, 0, len(msgs))
	for range msgs {
		select {
		case envelope := <-out:
			envelopes = append(envelopes, envelope)
		case <-time.After(time.Second):
			t.Fatal("no envelope emitted")
		}
	}
	return envelopes
}

func TestKafkaSource_CommitsInOffsetOrder(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	first := kafkaMessage(5, `{"event_id":"evt-5","event_name":"Purchase"}`)
	second := kafkaMessage(6, `{"event_id":"evt-6","event_name":"Purchase"}`)
	reader.On("CommitMessages", mock.Anything, []kafka.Message{second}).Return(nil).Once()

	envelopes := startKafkaSource(t, reader, source, first, second)

	require.NoError(t, envelopes[1].Ack(context.Background()))
	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)

	require.NoError(t, envelopes[0].Ack(context.Background()))
	reader.AssertExpectations(t)
	reader.AssertNumberOfCalls(t, "CommitMessages", 1)
}

func TestKafkaSource_NackRequeuesBeforeCommitting(t *testing.T) {
	reader := new(MockMessageReader)
	requeuer := new(MockMessageRequeuer)
	source := NewKafkaSource(reader, requeuer, NewJSONRequestParser(), zap.NewNop())

	nacked := kafkaMessage(5, `{"event_id":"evt-5","event_name":"Purchase"}`)
	acked := kafkaMessage(6, `{"event_id":"evt-6","event_name":"Purchase"}`)
	requeuer.On("Requeue", mock.Anything, nacked).Return(nil).Once()
	reader.On("CommitMessages", mock.Anything, []kafka.Message{acked}).Return(nil).Once()

	envelopes := startKafkaSource(t, reader, source, nacked, acked)

	require.NoError(t, envelopes[1].Ack(context.Background()))
	require.NoError(t, envelopes[0].Nack(context.Background()))

	requeuer.AssertExpectations(t)
	reader.AssertExpectations(t)
}

func TestKafkaSource_FailedRequeueHoldsCommits(t *testing.T) {
	reader := new(MockMessageReader)
	requeuer := new(MockMessageRequeuer)
	source := NewKafkaSource(reader, requeuer, NewJSONRequestParser(), zap.NewNop())

	nacked := kafkaMessage(5, `{"event_id":"evt-5","event_name":"Purchase"}`)
	acked := kafkaMessage(6, `{"event_id":"evt-6","event_name":"Purchase"}`)
	requeuer.On("Requeue", mock.Anything, nacked).Return(errors.New("broker unavailable")).Once()

	envelopes := startKafkaSource(t, reader, source, nacked, acked)

	assert.Error(t, envelopes[0].Nack(context.Background()))
	require.NoError(t, envelopes[1].Ack(context.Background()))

	requeuer.AssertExpectations(t)
	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
}

func TestKafkaSource_NackWithoutRequeuerDrops(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	msg := kafkaMessage(3, `{"event_id":"evt-3","event_name":"Purchase"}`)
	reader.On("CommitMessages", mock.Anything, []kafka.Message{msg}).Return(nil).Once()

	envelopes := startKafkaSource(t, reader, source, msg)

	assert.NoError(t, envelopes[0].Nack(context.Background()))
	reader.AssertExpectations(t)
}

func TestKafkaSource_PartitionsCommitIndependently(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	slow := kafkaMessage(5, `{"event_id":"evt-5","event_name":"Purchase"}`)
	other := kafkaMessage(9, `{"event_id":"evt-9","event_name":"Purchase"}`)
	other.Partition = 1
	reader.On("CommitMessages", mock.Anything, []kafka.Message{other}).Return(nil).Once()

	envelopes := startKafkaSource(t, reader, source, slow, other)

	require.NoError(t, envelopes[1].Ack(context.Background()))
	reader.AssertExpectations(t)
}

func TestKafkaSource_Start_RetriesFetchErrors(t *testing.T) {
	reader := new(MockMessageReader)
	source := NewKafkaSource(reader, nil, NewJSONRequestParser(), zap.NewNop())

	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("broker unavailable")).Once()
	reader.On("FetchMessage", mock.Anything).
		Return(kafkaMessage(4, `{"event_id":"evt-4","event_name":"Purchase"}`), nil).Once()
	blockUntilDone(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan *Envelope, 1)
	go source.Start(ctx, out)

	select {
	case envelope := <-out:
		assert.Equal(t, "evt-4", envelope.Request().EventID)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not recover from the fetch error")
	}
}
