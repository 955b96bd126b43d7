// Package geolocation resolves the approximate location of this host from
// its public IP address.
package geolocation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/wildlife-alert/internal/errors"
	"github.com/tphakala/wildlife-alert/internal/httpclient"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

const (
	DefaultEndpoint = "https://ipinfo.io/json"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 10 * time.Minute

	// UnknownLocation is used when no city could be resolved.
	UnknownLocation = "Unknown"

	componentName = "geolocation"
	cacheKey      = "self"
)

// Location is an approximate position. Latitude and Longitude are nil when
// the lookup service did not return coordinates.
type Location struct {
	Latitude  *float64
	Longitude *float64
	City      string
}

// Unknown returns the location used when a lookup fails.
func Unknown() Location {
	return Location{City: UnknownLocation}
}

// Locator looks up the current location.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// Config configures an IPInfoLocator.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	CacheTTL time.Duration
	// HTTPClient overrides the client built from Timeout. Tests inject one
	// with an httpmock transport.
	HTTPClient *httpclient.Client
}

// ipInfoResponse is the subset of the ipinfo.io reply we use.
type ipInfoResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

// IPInfoLocator queries an ipinfo-style JSON endpoint and caches
// successful answers.
type IPInfoLocator struct {
	endpoint string
	client   *httpclient.Client
	cache    *cache.Cache
	logger   logger.Logger
}

// NewIPInfoLocator creates a locator. Zero config fields take defaults.
func NewIPInfoLocator(cfg Config, log logger.Logger) *IPInfoLocator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(&httpclient.Config{DefaultTimeout: cfg.Timeout})
	}

	return &IPInfoLocator{
		endpoint: cfg.Endpoint,
		client:   client,
		cache:    cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		logger:   log.Module(componentName),
	}
}

// Locate returns the cached location or asks the endpoint.
func (l *IPInfoLocator) Locate(ctx context.Context) (Location, error) {
	if cached, found := l.cache.Get(cacheKey); found {
		if loc, ok := cached.(Location); ok {
			l.logger.Trace("location cache hit")
			return loc, nil
		}
	}

	start := time.Now()
	var resp ipInfoResponse
	if err := l.client.GetJSON(ctx, l.endpoint, &resp); err != nil {
		return Unknown(), errors.New(err).
			Component(componentName).
			Category(errors.CategoryGeolocation).
			NetworkContext(l.endpoint, 0).
			Timing("ip_lookup", time.Since(start)).
			Build()
	}

	loc := Location{City: strings.TrimSpace(resp.City)}
	if loc.City == "" {
		loc.City = UnknownLocation
	}
	if resp.Loc != "" {
		lat, lon, err := parseLatLon(resp.Loc)
		if err != nil {
			l.logger.Warn("ignoring malformed coordinates", logger.Error(err))
		} else {
			loc.Latitude, loc.Longitude = &lat, &lon
		}
	}

	l.cache.Set(cacheKey, loc, cache.DefaultExpiration)
	l.logger.Debug("location resolved",
		logger.String("city", loc.City),
		logger.Bool("has_coordinates", loc.Latitude != nil),
		logger.Duration("duration", time.Since(start)))
	return loc, nil
}

// Flush drops the cached location.
func (l *IPInfoLocator) Flush() {
	l.cache.Flush()
}

// parseLatLon parses ipinfo's "lat,lon" string.
func parseLatLon(s string) (lat, lon float64, err error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid loc %q: missing comma", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range in %q", s)
	}
	return lat, lon, nil
}
