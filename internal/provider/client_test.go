package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
)

func testConfig(baseURL string) config.Provider {
	return config.Provider{
		BaseURL:     baseURL,
		APIVersion:  "v17.0",
		PixelID:     "123456",
		AccessToken: "secret",
		Timeout:     2 * time.Second,
	}
}

func testPayload() EventPayload {
	value := 100.0
	return EventPayload{
		EventName:    "Purchase",
		EventTime:    1700000000,
		EventID:      "evt-1",
		ActionSource: ActionSourceWebsite,
		CustomData:   CustomData{Value: &value, Currency: "BRL"},
	}
}

func TestClient_Send_Success(t *testing.T) {
	var received request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v17.0/123456/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"events_received":1,"messages":[],"fbtrace_id":"trace-1"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	resp, raw, err := client.Send(context.Background(), []EventPayload{testPayload()})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.EventsReceived)
	assert.Equal(t, "trace-1", resp.FBTraceID)
	assert.JSONEq(t, `{"events_received":1,"messages":[],"fbtrace_id":"trace-1"}`, string(raw))
	assert.Equal(t, "secret", received.AccessToken)
	require.Len(t, received.Data, 1)
	assert.Equal(t, "evt-1", received.Data[0].EventID)
	assert.Equal(t, "website", received.Data[0].ActionSource)
}

func TestClient_Send_EmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, raw, err := client.Send(context.Background(), []EventPayload{testPayload()})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "invalid token", apiErr.Message)
	assert.NotEmpty(t, raw)
}

func TestClient_Send_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"abc"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, _, err := client.Send(context.Background(), []EventPayload{testPayload()})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, "abc", apiErr.FBTraceID)
}

func TestClient_Send_Non2xxWithoutJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, _, err := client.Send(context.Background(), []EventPayload{testPayload()})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Nil(t, statusErr.API)
}

func TestClient_Send_NotConfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.AccessToken = ""

	client := NewClient(cfg, zap.NewNop())

	_, _, err := client.Send(context.Background(), []EventPayload{testPayload()})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "PROVIDER_ACCESS_TOKEN")
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg, zap.NewNop())

	_, _, err := client.Send(context.Background(), []EventPayload{testPayload()})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))
}

func TestClient_EventsURL(t *testing.T) {
	client := NewClient(testConfig("https://graph.facebook.com/"), zap.NewNop())
	assert.Equal(t, "https://graph.facebook.com/v17.0/123456/events", client.EventsURL())
}
