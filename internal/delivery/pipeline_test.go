package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/provider"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, events []provider.EventPayload) (*provider.Response, []byte, error) {
	args := m.Called(ctx, events)
	var resp *provider.Response
	if args.Get(0) != nil {
		resp = args.Get(0).(*provider.Response)
	}
	var raw []byte
	if args.Get(1) != nil {
		raw = args.Get(1).([]byte)
	}
	return resp, raw, args.Error(2)
}

func strPtr(s string) *string { return &s }

func purchaseEvent() *domain.TrackedEvent {
	value := 100.0
	return &domain.TrackedEvent{
		EventID:    "evt-purchase-1",
		EventName:  domain.EventPurchase,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
		Value:      &value,
		Currency:   "BRL",
		SourceURL:  "https://shop.example.com/checkout",
		Attribution: domain.AttributionContext{
			UTMSource:   strPtr("fb"),
			UTMCampaign: strPtr("sale"),
			ClickIDs:    domain.ClickIDs{FBCLID: strPtr("IwAR1")},
			Token:       "1700000000000-abcdefghi",
		},
		CustomData: domain.CustomData{ContentIDs: []string{"prod-1"}, OrderID: "order-9"},
		UserData:   domain.UserData{ClientIPAddress: "203.0.113.5", ClientUserAgent: "Mozilla/5.0"},
		Status:     domain.StatusPending,
	}
}

func TestBuildPayload(t *testing.T) {
	payload := BuildPayload(purchaseEvent())

	assert.Equal(t, "Purchase", payload.EventName)
	assert.Equal(t, int64(1700000000), payload.EventTime)
	assert.Equal(t, "evt-purchase-1", payload.EventID)
	assert.Equal(t, "website", payload.ActionSource)
	assert.Equal(t, "https://shop.example.com/checkout", payload.EventSourceURL)
	require.NotNil(t, payload.CustomData.Value)
	assert.Equal(t, 100.0, *payload.CustomData.Value)
	assert.Equal(t, "BRL", payload.CustomData.Currency)
	assert.Equal(t, "fb", payload.CustomData.UTMSource)
	assert.Equal(t, "sale", payload.CustomData.UTMCampaign)
	assert.Equal(t, []string{"prod-1"}, payload.CustomData.ContentIDs)
	assert.Equal(t, "order-9", payload.CustomData.OrderID)
	assert.Equal(t, "fb.1.1700000000000.IwAR1", payload.UserData.FBC)
	assert.Equal(t, "203.0.113.5", payload.UserData.ClientIPAddress)
}

func TestBuildPayload_DefaultsCurrencyAndKeepsFBC(t *testing.T) {
	event := purchaseEvent()
	event.Currency = ""
	event.UserData.FBC = "fb.1.1.stored"

	payload := BuildPayload(event)

	assert.Equal(t, "BRL", payload.CustomData.Currency)
	assert.Equal(t, "fb.1.1.stored", payload.UserData.FBC)
}

func TestDeliver_Success(t *testing.T) {
	sender := new(MockSender)
	pipeline := NewPipeline(sender, zap.NewNop())
	body := []byte(`{"events_received":1,"fbtrace_id":"trace"}`)

	sender.On("Send", mock.Anything, mock.Anything).Return(&provider.Response{EventsReceived: 1}, body, nil)

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.Equal(t, domain.StatusSent, result.Status)
	assert.NoError(t, result.Err)
	assert.JSONEq(t, string(body), string(result.Response))
	sender.AssertExpectations(t)
}

func TestDeliver_InvalidTokenAgainstProvider(t *testing.T) {
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
	pipeline := NewPipeline(client, zap.NewNop())

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, 190, result.ErrorCode)

	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(result.Response, &body))
	assert.Equal(t, 190, body.Error.Code)
	assert.Equal(t, "invalid token", body.Error.Message)
}

func TestDeliver_Non2xx(t *testing.T) {
	sender := new(MockSender)
	pipeline := NewPipeline(sender, zap.NewNop())

	sender.On("Send", mock.Anything, mock.Anything).
		Return(nil, []byte("upstream down"), &provider.StatusError{StatusCode: http.StatusServiceUnavailable})

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, http.StatusServiceUnavailable, result.ErrorCode)
	assert.Contains(t, string(result.Response), `"type":"HTTPError"`)
}

func TestDeliver_TransportError(t *testing.T) {
	sender := new(MockSender)
	pipeline := NewPipeline(sender, zap.NewNop())

	sender.On("Send", mock.Anything, mock.Anything).Return(nil, nil, errors.New("connection reset"))

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.False(t, result.NotConfigured())
	assert.Contains(t, string(result.Response), "connection reset")
}

func TestDeliver_NotConfigured(t *testing.T) {
	client := provider.NewClient(config.Provider{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	pipeline := NewPipeline(client, zap.NewNop())

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.True(t, result.NotConfigured())
	assert.Equal(t, domain.StatusFailed, result.Status)
}

func TestDeliver_RecoversPanic(t *testing.T) {
	sender := new(MockSender)
	pipeline := NewPipeline(sender, zap.NewNop())

	sender.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	})

	result := pipeline.Deliver(context.Background(), purchaseEvent())

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Contains(t, string(result.Response), "boom")
}

func TestDeliver_ReusesEventIDAcrossRetries(t *testing.T) {
	sender := new(MockSender)
	pipeline := NewPipeline(sender, zap.NewNop())
	event := purchaseEvent()

	var sentIDs []string
	sender.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		payloads := args.Get(1).([]provider.EventPayload)
		sentIDs = append(sentIDs, payloads[0].EventID)
	}).Return(nil, nil, errors.New("timeout")).Once()
	sender.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		payloads := args.Get(1).([]provider.EventPayload)
		sentIDs = append(sentIDs, payloads[0].EventID)
	}).Return(&provider.Response{EventsReceived: 1}, []byte(`{"events_received":1}`), nil).Once()

	first := pipeline.Deliver(context.Background(), event)
	second := pipeline.Deliver(context.Background(), event)

	assert.Equal(t, domain.StatusFailed, first.Status)
	assert.Equal(t, domain.StatusSent, second.Status)
	assert.Equal(t, []string{"evt-purchase-1", "evt-purchase-1"}, sentIDs)
}
