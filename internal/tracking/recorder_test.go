package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/delivery"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/provider"
)

type staticAttribution struct {
	ac *domain.AttributionContext
}

func (s staticAttribution) Current(context.Context, string) *domain.AttributionContext {
	return s.ac
}

func purchaseRequest(eventID string) *domain.TrackRequest {
	value := 100.0
	return &domain.TrackRequest{
		EventID:      eventID,
		EventName:    domain.EventPurchase,
		OccurredAt:   baseTime,
		SessionToken: "1700000000000-abcdefghi",
		Value:        &value,
		Currency:     "BRL",
		Client:       domain.ClientInfo{IPAddress: "203.0.113.5", UserAgent: "Mozilla/5.0"},
	}
}

func TestRecorder_Track_Sent(t *testing.T) {
	store := newMemoryEventStore()
	deliverer := &fakeDeliverer{}
	sink := &recordingSink{}
	source := "fb"
	attribution := staticAttribution{ac: &domain.AttributionContext{UTMSource: &source, Token: "1700000000000-abcdefghi"}}
	recorder := NewRecorder(store, attribution, deliverer, sink, zap.NewNop())

	event, err := recorder.Track(context.Background(), purchaseRequest("evt-1"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, event.Status)
	assert.Equal(t, 1, event.Attempts)

	stored := store.get("evt-1")
	assert.Equal(t, domain.StatusSent, stored.Status)
	assert.Equal(t, "fb", domain.StringValue(stored.Attribution.UTMSource))
	assert.Equal(t, "203.0.113.5", stored.UserData.ClientIPAddress)
	assert.Equal(t, "Mozilla/5.0", stored.UserData.ClientUserAgent)

	attempts := sink.all()
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.SourceImmediate, attempts[0].Source)
	assert.Equal(t, uint32(1), attempts[0].Attempt)
	assert.Equal(t, "fb", attempts[0].UTMSource)
	assert.Equal(t, 100.0, attempts[0].Value)
}

func TestRecorder_Track_InvalidTokenFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid token","code":190}}`))
	}))
	defer server.Close()

	client := provider.NewClient(config.Provider{
		BaseURL:     server.URL,
		APIVersion:  "v17.0",
		PixelID:     "123",
		AccessToken: "expired",
		Timeout:     time.Second,
	}, zap.NewNop())
	store := newMemoryEventStore()
	recorder := NewRecorder(store, nil, delivery.NewPipeline(client, zap.NewNop()), nil, zap.NewNop())

	event, err := recorder.Track(context.Background(), purchaseRequest("evt-190"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, event.Status)

	stored := store.get("evt-190")
	assert.Equal(t, domain.StatusFailed, stored.Status)

	var response struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(stored.ProviderResponse, &response))
	assert.Equal(t, 190, response.Error.Code)
}

func TestRecorder_Track_InsertFailureDropsEvent(t *testing.T) {
	store := newMemoryEventStore()
	store.insertErr = errors.New("relation events does not exist")
	deliverer := &fakeDeliverer{}
	recorder := NewRecorder(store, nil, deliverer, nil, zap.NewNop())

	event, err := recorder.Track(context.Background(), purchaseRequest("evt-1"))

	assert.Error(t, err)
	assert.Nil(t, event)
	assert.Empty(t, deliverer.ids())
}

func TestRecorder_Track_DuplicateEventID(t *testing.T) {
	store := newMemoryEventStore()
	deliverer := &fakeDeliverer{}
	recorder := NewRecorder(store, nil, deliverer, nil, zap.NewNop())
	scheduler := newTestScheduler(store, deliverer, SchedulerConfig{Interval: time.Hour, BatchSize: 50})

	_, err := recorder.Track(context.Background(), purchaseRequest("evt-dup"))
	require.NoError(t, err)
	second, err := recorder.Track(context.Background(), purchaseRequest("evt-dup"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := scheduler.Sweep(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, domain.StatusSent, second.Status)
	assert.Equal(t, 1, store.count(domain.StatusSent))
	assert.Equal(t, []string{"evt-dup"}, deliverer.ids())
}

func TestRecorder_Track_NotConfiguredStaysPending(t *testing.T) {
	store := newMemoryEventStore()
	deliverer := &fakeDeliverer{fn: func(*domain.TrackedEvent) delivery.Result {
		return failedResult(provider.ErrNotConfigured)
	}}
	sink := &recordingSink{}
	recorder := NewRecorder(store, nil, deliverer, sink, zap.NewNop())

	event, err := recorder.Track(context.Background(), purchaseRequest("evt-1"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, event.Status)
	assert.Equal(t, domain.StatusPending, store.get("evt-1").Status)
	assert.Empty(t, sink.all())
}

func TestRecorder_Track_Defaults(t *testing.T) {
	store := newMemoryEventStore()
	recorder := NewRecorder(store, nil, &fakeDeliverer{}, nil, zap.NewNop())
	recorder.now = func() time.Time { return baseTime }

	event, err := recorder.Track(context.Background(), &domain.TrackRequest{EventName: domain.EventViewContent})

	require.NoError(t, err)
	assert.Len(t, event.EventID, 36)
	assert.Equal(t, "BRL", event.Currency)
	assert.True(t, baseTime.Equal(event.OccurredAt))
}
