package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestEnrich_UserAgent(t *testing.T) {
	e, err := New("", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	mobile := e.Enrich(iphoneUA, "203.0.113.5")
	assert.Equal(t, "mobile", mobile.DeviceType)
	assert.Equal(t, "Safari", mobile.Browser)
	assert.Equal(t, "203.0.113.5", mobile.IPAddress)
	assert.Empty(t, mobile.Country)

	desktop := e.Enrich(desktopUA, "")
	assert.Equal(t, "desktop", desktop.DeviceType)
	assert.Equal(t, "Chrome", desktop.Browser)

	bot := e.Enrich(botUA, "")
	assert.Equal(t, "bot", bot.DeviceType)
}

func TestEnrich_EmptyUserAgent(t *testing.T) {
	e, err := New("", zap.NewNop())
	require.NoError(t, err)

	info := e.Enrich("", "")

	assert.Empty(t, info.Browser)
	assert.Empty(t, info.DeviceType)
}

func TestNew_MissingDatabase(t *testing.T) {
	_, err := New("/nonexistent/GeoLite2-City.mmdb", zap.NewNop())
	assert.Error(t, err)
}
