package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/provider"
)

// Error types written into the failure response when the provider gave none
const (
	ErrorTypeTransport = "TransportError"
	ErrorTypeHTTP      = "HTTPError"
	ErrorTypeConfig    = "ConfigurationError"
	ErrorTypeInternal  = "InternalError"
)

// Sender posts event payloads to the provider
type Sender interface {
	Send(ctx context.Context, events []provider.EventPayload) (*provider.Response, []byte, error)
}

// Result is the outcome of one delivery attempt
type Result struct {
	Status    domain.Status
	Response  json.RawMessage
	Err       error
	ErrorCode int
}

// NotConfigured reports whether the attempt failed for missing provider credentials
func (r Result) NotConfigured() bool {
	return errors.Is(r.Err, provider.ErrNotConfigured)
}

type failureBody struct {
	Error failureDetail `json:"error"`
}

type failureDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

// Pipeline turns stored events into provider payloads and sends them
type Pipeline struct {
	sender Sender
	log    *zap.Logger
}

// NewPipeline creates a new delivery pipeline
func NewPipeline(sender Sender, log *zap.Logger) *Pipeline {
	return &Pipeline{
		sender: sender,
		log:    log,
	}
}

// Deliver sends one event and reports the outcome as data. It never panics past its boundary.
func (p *Pipeline) Deliver(ctx context.Context, event *domain.TrackedEvent) (result Result) {
	if event == nil {
		err := errors.New("nil event")
		return failed(err, failureDetail{Message: err.Error(), Type: ErrorTypeInternal})
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("delivery panicked: %v", r)
			p.log.Error("Recovered from delivery panic",
				zap.String("event_id", event.EventID),
				zap.Any("panic", r))
			result = failed(err, failureDetail{Message: err.Error(), Type: ErrorTypeInternal})
		}
	}()

	_, raw, err := p.sender.Send(ctx, []provider.EventPayload{BuildPayload(event)})
	if err != nil {
		result = failed(err, detailFor(err))
		p.log.Debug("Event delivery failed",
			zap.String("event_id", event.EventID),
			zap.String("event_name", string(event.EventName)),
			zap.Int("error_code", result.ErrorCode),
			zap.Error(err))
		return result
	}

	return Result{
		Status:   domain.StatusSent,
		Response: asJSON(raw),
	}
}

func failed(err error, detail failureDetail) Result {
	body, mErr := json.Marshal(failureBody{Error: detail})
	if mErr != nil {
		body = []byte(`{"error":{"message":"unencodable error","type":"InternalError","code":0}}`)
	}
	return Result{
		Status:    domain.StatusFailed,
		Response:  body,
		Err:       err,
		ErrorCode: detail.Code,
	}
}

func detailFor(err error) failureDetail {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return failureDetail{
			Message:   apiErr.Message,
			Type:      apiErr.Type,
			Code:      apiErr.Code,
			FBTraceID: apiErr.FBTraceID,
		}
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		return failureDetail{
			Message: err.Error(),
			Type:    ErrorTypeHTTP,
			Code:    statusErr.StatusCode,
		}
	}

	if errors.Is(err, provider.ErrNotConfigured) {
		return failureDetail{Message: err.Error(), Type: ErrorTypeConfig}
	}

	return failureDetail{Message: err.Error(), Type: ErrorTypeTransport}
}

// asJSON keeps raw as-is when it is valid JSON and wraps it as a string otherwise
func asJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(raw) {
		return raw
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(raw)})
	return wrapped
}

// BuildPayload converts a stored event into the provider payload. The event_id is sent verbatim.
func BuildPayload(event *domain.TrackedEvent) provider.EventPayload {
	ac := event.Attribution

	userData := event.UserData
	if userData.FBC == "" && ac.ClickIDs.FBCLID != nil && *ac.ClickIDs.FBCLID != "" {
		userData.FBC = FBC(*ac.ClickIDs.FBCLID, event.OccurredAt.UnixMilli())
	}

	currency := strings.ToUpper(event.Currency)
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	cd := event.CustomData
	return provider.EventPayload{
		EventName:      string(event.EventName),
		EventTime:      event.OccurredAt.Unix(),
		EventID:        event.EventID,
		EventSourceURL: event.SourceURL,
		ActionSource:   provider.ActionSourceWebsite,
		UserData:       userData,
		CustomData: provider.CustomData{
			Value:           event.Value,
			Currency:        currency,
			ContentIDs:      cd.ContentIDs,
			ContentName:     cd.ContentName,
			ContentType:     cd.ContentType,
			ContentCategory: cd.ContentCategory,
			NumItems:        cd.NumItems,
			OrderID:         cd.OrderID,
			CustomerID:      cd.CustomerID,
			TransactionID:   cd.TransactionID,
			UTMSource:       domain.StringValue(ac.UTMSource),
			UTMMedium:       domain.StringValue(ac.UTMMedium),
			UTMCampaign:     domain.StringValue(ac.UTMCampaign),
			UTMTerm:         domain.StringValue(ac.UTMTerm),
			UTMContent:      domain.StringValue(ac.UTMContent),
			FBCLID:          domain.StringValue(ac.ClickIDs.FBCLID),
			GCLID:           domain.StringValue(ac.ClickIDs.GCLID),
			TTCLID:          domain.StringValue(ac.ClickIDs.TTCLID),
		},
	}
}

// FBC formats the click cookie value the provider derives from an fbclid
func FBC(fbclid string, clickedAtMillis int64) string {
	return fmt.Sprintf("fb.1.%d.%s", clickedAtMillis, fbclid)
}
