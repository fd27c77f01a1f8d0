package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TrySubmit when the dispatcher queue has no room
var ErrQueueFull = errors.New("dispatcher queue is full")

// Dispatcher feeds submitted tasks to the tracker through a bounded queue
type Dispatcher struct {
	tasks     chan Task
	tracker   Tracker
	workers   int
	processed atomic.Int64
	failed    atomic.Int64
	log       *zap.Logger
}

// NewDispatcher creates a dispatcher with a queue of queueSize tasks served by workers goroutines
func NewDispatcher(tracker Tracker, queueSize, workers int, log *zap.Logger) *Dispatcher {
	if queueSize < 0 {
		queueSize = 0
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		tasks:   make(chan Task, queueSize),
		tracker: tracker,
		workers: workers,
		log:     log,
	}
}

// Submit enqueues task, blocking until there is room or ctx is done
func (d *Dispatcher) Submit(ctx context.Context, task Task) error {
	select {
	case d.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues task or returns ErrQueueFull
func (d *Dispatcher) TrySubmit(task Task) error {
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes tasks until ctx is done. A task already taken is finished before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("Dispatcher started", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.tasks)))

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-d.tasks:
					d.process(context.WithoutCancel(ctx), task)
				}
			}
		}()
	}
	wg.Wait()

	d.log.Info("Dispatcher stopped",
		zap.Int64("processed", d.processed.Load()),
		zap.Int64("failed", d.failed.Load()),
		zap.Int("pending", len(d.tasks)))
}

func (d *Dispatcher) process(ctx context.Context, task Task) {
	req := task.Request()
	if req == nil {
		d.failed.Add(1)
		d.nack(ctx, task, "")
		return
	}

	if _, err := d.tracker.Track(ctx, req); err != nil {
		d.failed.Add(1)
		d.log.Warn("Task failed, releasing it for redelivery",
			zap.String("event_id", req.EventID),
			zap.Error(err))
		d.nack(ctx, task, req.EventID)
		return
	}

	d.processed.Add(1)
	if err := task.Ack(ctx); err != nil {
		d.log.Error("Failed to ack task", zap.String("event_id", req.EventID), zap.Error(err))
	}
}

func (d *Dispatcher) nack(ctx context.Context, task Task, eventID string) {
	if err := task.Nack(ctx); err != nil {
		d.log.Error("Failed to nack task", zap.String("event_id", eventID), zap.Error(err))
	}
}

// Stats returns the number of tasks acked and nacked so far
func (d *Dispatcher) Stats() (processed, failed int64) {
	return d.processed.Load(), d.failed.Load()
}

// Pending returns the number of queued tasks
func (d *Dispatcher) Pending() int {
	return len(d.tasks)
}
