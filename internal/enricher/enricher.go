package enricher

import (
	"fmt"
	"net"

	"github.com/mssola/useragent"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// Enricher derives browser, device and location data from request metadata
type Enricher struct {
	geoIP *geoip2.Reader
	log   *zap.Logger
}

// New creates an enricher. An empty geoIPPath disables location lookups.
func New(geoIPPath string, log *zap.Logger) (*Enricher, error) {
	e := &Enricher{log: log}
	if geoIPPath == "" {
		log.Info("GeoIP database not configured, location enrichment disabled")
		return e, nil
	}

	reader, err := geoip2.Open(geoIPPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	e.geoIP = reader
	return e, nil
}

// Enrich builds the client info of one request
func (e *Enricher) Enrich(userAgent, clientIP string) domain.ClientInfo {
	info := domain.ClientInfo{
		IPAddress: clientIP,
		UserAgent: userAgent,
	}

	if userAgent != "" {
		ua := useragent.New(userAgent)
		info.Browser, _ = ua.Browser()
		info.OS = ua.OS()
		info.DeviceType = deviceType(ua)
	}

	if e.geoIP != nil && clientIP != "" {
		if ip := net.ParseIP(clientIP); ip != nil {
			record, err := e.geoIP.City(ip)
			if err != nil {
				e.log.Debug("GeoIP lookup failed", zap.String("client_ip", clientIP), zap.Error(err))
			} else {
				info.Country = record.Country.IsoCode
				info.City = record.City.Names["en"]
			}
		}
	}

	return info
}

func deviceType(ua *useragent.UserAgent) string {
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}

// Close releases the GeoIP database
func (e *Enricher) Close() {
	if e.geoIP != nil {
		if err := e.geoIP.Close(); err != nil {
			e.log.Warn("Failed to close GeoIP database", zap.Error(err))
		}
	}
}
