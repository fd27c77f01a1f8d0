package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

var (
	// ErrSweepInProgress is returned when a sweep is requested while another one runs
	ErrSweepInProgress = errors.New("sweep already in progress")

	// ErrProviderNotConfigured aborts a sweep before any event is selected
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Sweep defaults
const (
	DefaultInterval  = 60 * time.Second
	DefaultBatchSize = 50
)

// SchedulerConfig controls the sweep loop
type SchedulerConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Selected int
	Sent     int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Handle controls a running sweep loop
type Handle struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// Stop prevents future sweeps. A sweep already running is not interrupted.
func (h *Handle) Stop() {
	h.stopped.Store(true)
	h.cancel()
}

// Done is closed once the loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Scheduler periodically redelivers pending and failed events
type Scheduler struct {
	store     EventStore
	deliverer Deliverer
	provider  ProviderCheck
	sink      OutcomeSink
	cfg       SchedulerConfig
	log       *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	handle     *Handle
	processing atomic.Bool
	configErr  atomic.Bool
	inflight   sync.WaitGroup
}

// NewScheduler creates a new scheduler. A nil sink discards delivery attempts.
func NewScheduler(store EventStore, deliverer Deliverer, provider ProviderCheck, sink OutcomeSink, cfg SchedulerConfig, log *zap.Logger) *Scheduler {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Scheduler{
		store:     store,
		deliverer: deliverer,
		provider:  provider,
		sink:      sink,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Start runs one sweep now and one every interval until the handle is stopped
// or ctx is done. Calling Start while a loop is running returns that loop's handle.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil && !s.handle.stopped.Load() {
		select {
		case <-s.handle.done:
		default:
			s.log.Info("Scheduler already running")
			return s.handle
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	s.handle = h

	s.log.Info("Scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("batch_size", s.cfg.BatchSize),
		zap.Int("max_attempts", s.cfg.MaxAttempts))

	go s.loop(loopCtx, h)
	return h
}

// Stop stops the running loop, if any
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
		s.log.Info("Scheduler stopped")
	}
}

// Wait blocks until every sweep started by the loop has finished
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) loop(ctx context.Context, h *Handle) {
	defer close(h.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick starts a sweep that outlives ctx, so stopping never cuts a sweep short
func (s *Scheduler) tick(ctx context.Context) {
	// ticker.C and Done can be ready together after Stop
	if ctx.Err() != nil {
		return
	}
	if s.processing.Load() {
		s.log.Debug("Previous sweep still running, skipping tick")
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if _, err := s.Sweep(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrSweepInProgress) {
			s.log.Debug("Sweep ended with error", zap.Error(err))
		}
	}()
}

// Sweep redelivers up to BatchSize unresolved events, oldest first, one at a time
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.processing.Store(false)

	start := s.now()
	var result SweepResult

	if err := s.provider.Configured(); err != nil {
		if s.configErr.CompareAndSwap(false, true) {
			s.log.Error("Provider not configured, sweep aborted", zap.Error(err))
		} else {
			s.log.Debug("Provider not configured, sweep aborted", zap.Error(err))
		}
		return result, fmt.Errorf("%w: %w", ErrProviderNotConfigured, err)
	}
	s.configErr.Store(false)

	events, err := s.store.ListUnresolved(ctx, s.cfg.BatchSize, s.cfg.MaxAttempts)
	if err != nil {
		s.log.Error("Failed to query unresolved events, sweep aborted", zap.Error(err))
		return result, fmt.Errorf("failed to query unresolved events: %w", err)
	}
	result.Selected = len(events)

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			result.Duration = s.now().Sub(start)
			return result, err
		}

		outcome := s.deliverer.Deliver(ctx, event)
		s.sink.Record(NewAttempt(event, outcome, domain.SourceSweep, s.now()))

		update := domain.StatusUpdate{Status: outcome.Status, Response: outcome.Response}
		if err := s.store.UpdateStatus(ctx, event.EventID, update); err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				result.Skipped++
				s.log.Debug("Event resolved elsewhere, skipping", zap.String("event_id", event.EventID))
				continue
			}
			result.Duration = s.now().Sub(start)
			s.log.Error("Failed to update event, sweep aborted",
				zap.String("event_id", event.EventID),
				zap.Error(err))
			return result, fmt.Errorf("failed to update event %s: %w", event.EventID, err)
		}

		if outcome.Status == domain.StatusSent {
			result.Sent++
		} else {
			result.Failed++
			s.log.Warn("Event delivery failed",
				zap.String("event_id", event.EventID),
				zap.String("event_name", string(event.EventName)),
				zap.Int("attempt", event.Attempts+1),
				zap.Error(outcome.Err))
		}
	}

	result.Duration = s.now().Sub(start)
	if result.Selected > 0 {
		s.log.Info("Sweep completed",
			zap.Int("selected", result.Selected),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
			zap.Duration("duration", result.Duration))
	}

	return result, nil
}
