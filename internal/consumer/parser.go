package consumer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// JSONRequestParser implements MessageParser for JSON-encoded track requests
type JSONRequestParser struct{}

// NewJSONRequestParser creates a new JSON track request parser
func NewJSONRequestParser() *JSONRequestParser {
	return &JSONRequestParser{}
}

// Parse parses a JSON message body into a TrackRequest
func (p *JSONRequestParser) Parse(body []byte) (*domain.TrackRequest, error) {
	var req domain.TrackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if req.EventID == "" {
		return nil, errors.New("message has no event_id")
	}
	if !req.EventName.Valid() {
		return nil, fmt.Errorf("unknown event_name %q", req.EventName)
	}

	return &req, nil
}
