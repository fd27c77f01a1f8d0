package tracking

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// memoryEventStore is an in-memory EventStore with the same status rules as the Postgres one
type memoryEventStore struct {
	mu        sync.Mutex
	nextID    int64
	events    map[string]*domain.TrackedEvent
	insertErr error
	listErr   error
	updateErr map[string]error
	listCalls atomic.Int64
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{
		events:    make(map[string]*domain.TrackedEvent),
		updateErr: make(map[string]error),
	}
}

func (s *memoryEventStore) Insert(_ context.Context, event *domain.TrackedEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return false, s.insertErr
	}
	if _, ok := s.events[event.EventID]; ok {
		return false, nil
	}
	s.nextID++
	stored := *event
	stored.ID = s.nextID
	s.events[event.EventID] = &stored
	return true, nil
}

func (s *memoryEventStore) UpdateStatus(_ context.Context, eventID string, update domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateErr[eventID]; err != nil {
		return err
	}
	event, ok := s.events[eventID]
	if !ok || !event.Status.CanTransition(update.Status) {
		return repository.ErrEventNotFound
	}
	event.Status = update.Status
	event.ProviderResponse = update.Response
	event.Attempts++
	return nil
}

func (s *memoryEventStore) ListUnresolved(_ context.Context, limit, maxAttempts int) ([]*domain.TrackedEvent, error) {
	s.listCalls.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []*domain.TrackedEvent
	for _, e := range s.events {
		if e.Status == domain.StatusSent {
			continue
		}
		if maxAttempts > 0 && e.Attempts >= maxAttempts {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryEventStore) GetByID(_ context.Context, eventID string) (*domain.TrackedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	c := *e
	return &c, nil
}

func (s *memoryEventStore) get(eventID string) domain.TrackedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[eventID]
}

func (s *memoryEventStore) count(status domain.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Status == status {
			n++
		}
	}
	return n
}

// fakeDeliverer records delivered event ids and answers with fn
type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []string
	fn        func(event *domain.TrackedEvent) delivery.Result
}

func (d *fakeDeliverer) Deliver(_ context.Context, event *domain.TrackedEvent) delivery.Result {
	d.mu.Lock()
	d.delivered = append(d.delivered, event.EventID)
	fn := d.fn
	d.mu.Unlock()

	if fn == nil {
		return sentResult()
	}
	return fn(event)
}

func (d *fakeDeliverer) ids() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.delivered...)
}

func sentResult() delivery.Result {
	return delivery.Result{Status: domain.StatusSent, Response: json.RawMessage(`{"events_received":1}`)}
}

func failedResult(err error) delivery.Result {
	return delivery.Result{
		Status:   domain.StatusFailed,
		Response: json.RawMessage(`{"error":{"message":"down","type":"TransportError","code":0}}`),
		Err:      err,
	}
}

type fakeProvider struct {
	err error
}

func (p fakeProvider) Configured() error { return p.err }

// recordingSink keeps every attempt
type recordingSink struct {
	mu       sync.Mutex
	attempts []*domain.DeliveryAttempt
}

func (s *recordingSink) Record(a *domain.DeliveryAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, a)
}

func (s *recordingSink) all() []*domain.DeliveryAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.DeliveryAttempt(nil), s.attempts...)
}
