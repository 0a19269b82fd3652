// Package geocode resolves coordinates to ISO country codes through the
// Google Geocoding API, with an optional Redis cache in front of it.
package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/metrics"
)

// DefaultBaseURL is the Maps API host. The client appends the Geocoding
// API path itself.
const DefaultBaseURL = "https://maps.googleapis.com"

const service = "geocode"

type Client struct {
	maps   *maps.Client
	logger *slog.Logger
}

func NewClient(baseURL, key string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	mc, err := maps.NewClient(
		maps.WithAPIKey(key),
		maps.WithBaseURL(baseURL),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &Client{maps: mc, logger: logger}, nil
}

// ReverseGeocode returns the lowercase country code of the first result for
// p. geoguess.ErrNoCountry means the API answered and named no country;
// quota, key and transport failures come back as other errors.
func (c *Client) ReverseGeocode(ctx context.Context, p geoguess.Point) (string, error) {
	start := time.Now()
	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	metrics.UpstreamDurationMs.WithLabelValues(service).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return "", fmt.Errorf("reverse geocoding %s: %w", p, err)
	}

	// ZERO_RESULTS is not an error for the maps client; it yields no results.
	if len(results) == 0 {
		c.logger.Debug("geocode without results", "location", p.String())
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "empty").Inc()
		return "", geoguess.ErrNoCountry
	}

	for _, comp := range results[0].AddressComponents {
		if slices.Contains(comp.Types, "country") && comp.ShortName != "" {
			metrics.UpstreamRequestsTotal.WithLabelValues(service, "ok").Inc()
			return strings.ToLower(comp.ShortName), nil
		}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(service, "empty").Inc()
	return "", geoguess.ErrNoCountry
}
