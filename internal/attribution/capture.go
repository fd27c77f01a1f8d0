package attribution

import (
	"context"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// Keys are the query parameters recognized by Capture, in storage order
var Keys = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"fbclid",
	"gclid",
	"ttclid",
}

const (
	tokenSuffixLen = 9
	base36         = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Capturer merges landing-page parameters into the attribution context of a session
type Capturer struct {
	store repository.AttributionRepository
	log   *zap.Logger
	now   func() time.Time
}

// NewCapturer creates a new capturer. A nil store makes every call return the URL values only.
func NewCapturer(store repository.AttributionRepository, log *zap.Logger) *Capturer {
	return &Capturer{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Capture merges the recognized keys of query into the stored context of token
// and persists the result. It never fails: a storage error degrades to the
// context built from query alone.
func (c *Capturer) Capture(ctx context.Context, token string, query url.Values) *domain.AttributionContext {
	merged := &domain.AttributionContext{}

	if stored := c.load(ctx, token); stored != nil {
		*merged = *stored
	}

	merged.Merge(FromQuery(query))

	switch {
	case token != "":
		merged.Token = token
	case merged.Token == "":
		merged.Token = c.NewToken()
	}

	if merged.HasValues() && c.store != nil {
		if err := c.store.Save(ctx, merged); err != nil {
			c.log.Warn("Failed to persist attribution context",
				zap.String("token", merged.Token),
				zap.Error(err))
		}
	}

	return merged
}

// Current returns the stored context of token, or nil when there is none
func (c *Capturer) Current(ctx context.Context, token string) *domain.AttributionContext {
	return c.load(ctx, token)
}

// Reset removes the stored context of token
func (c *Capturer) Reset(ctx context.Context, token string) error {
	if c.store == nil || token == "" {
		return nil
	}
	return c.store.Delete(ctx, token)
}

// NewToken returns a session token of the form "<unix-ms>-<9 base36 chars>"
func (c *Capturer) NewToken() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(c.now().UnixMilli(), 10))
	b.WriteByte('-')
	for range tokenSuffixLen {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

func (c *Capturer) load(ctx context.Context, token string) *domain.AttributionContext {
	if c.store == nil || token == "" {
		return nil
	}

	stored, err := c.store.Load(ctx, token)
	if err != nil {
		c.log.Warn("Failed to load attribution context, starting empty",
			zap.String("token", token),
			zap.Error(err))
		return nil
	}
	return stored
}

// FromQuery builds a context from the recognized keys of query. Absent and empty values stay nil.
func FromQuery(query url.Values) domain.AttributionContext {
	var ac domain.AttributionContext
	targets := map[string]**string{
		"utm_source":   &ac.UTMSource,
		"utm_medium":   &ac.UTMMedium,
		"utm_campaign": &ac.UTMCampaign,
		"utm_term":     &ac.UTMTerm,
		"utm_content":  &ac.UTMContent,
		"fbclid":       &ac.ClickIDs.FBCLID,
		"gclid":        &ac.ClickIDs.GCLID,
		"ttclid":       &ac.ClickIDs.TTCLID,
	}

	for _, k := range Keys {
		if v := strings.TrimSpace(query.Get(k)); v != "" {
			*targets[k] = &v
		}
	}
	return ac
}

// QueryFromURL returns the query values of a page URL. An unparsable URL has none.
func QueryFromURL(raw string) url.Values {
	u, err := url.Parse(raw)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}
