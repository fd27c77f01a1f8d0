package tracking

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockTracker is a mock implementation of Tracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(ctx context.Context, req *domain.TrackRequest) (*domain.TrackedEvent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackedEvent), args.Error(1)
}

type fakeTask struct {
	req   *domain.TrackRequest
	acks  atomic.Int32
	nacks atomic.Int32
}

func (t *fakeTask) Request() *domain.TrackRequest { return t.req }

func (t *fakeTask) Ack(context.Context) error {
	t.acks.Add(1)
	return nil
}

func (t *fakeTask) Nack(context.Context) error {
	t.nacks.Add(1)
	return nil
}

func TestDispatcher_TrySubmit_QueueFull(t *testing.T) {
	dispatcher := NewDispatcher(new(MockTracker), 1, 1, zap.NewNop())

	require.NoError(t, dispatcher.TrySubmit(&fakeTask{}))
	assert.ErrorIs(t, dispatcher.TrySubmit(&fakeTask{}), ErrQueueFull)
	assert.Equal(t, 1, dispatcher.Pending())
}

func TestDispatcher_Submit_BlocksUntilContextDone(t *testing.T) {
	dispatcher := NewDispatcher(new(MockTracker), 0, 1, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := dispatcher.Submit(ctx, &fakeTask{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_Run_AcksAndNacks(t *testing.T) {
	tracker := new(MockTracker)
	dispatcher := NewDispatcher(tracker, 10, 2, zap.NewNop())

	good := &fakeTask{req: &domain.TrackRequest{EventID: "evt-ok"}}
	bad := &fakeTask{req: &domain.TrackRequest{EventID: "evt-bad"}}
	empty := &fakeTask{}

	tracker.On("Track", mock.Anything, good.req).Return(&domain.TrackedEvent{EventID: "evt-ok"}, nil)
	tracker.On("Track", mock.Anything, bad.req).Return(nil, errors.New("insert failed"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(done)
	}()

	require.NoError(t, dispatcher.Submit(ctx, good))
	require.NoError(t, dispatcher.Submit(ctx, bad))
	require.NoError(t, dispatcher.Submit(ctx, empty))

	assert.Eventually(t, func() bool {
		processed, failed := dispatcher.Stats()
		return processed == 1 && failed == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, int32(1), good.acks.Load())
	assert.Equal(t, int32(0), good.nacks.Load())
	assert.Equal(t, int32(1), bad.nacks.Load())
	assert.Equal(t, int32(1), empty.nacks.Load())
	tracker.AssertExpectations(t)
}
