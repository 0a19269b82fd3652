// Package streetview talks to the Street View Static API: metadata lookups
// for the location search and image URLs for presentation.
package streetview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/metrics"
)

// DefaultBaseURL is the Street View Static API root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/streetview"

const service = "streetview"

type Client struct {
	baseURL string
	key     string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient returns a client using the given API key. An empty baseURL
// selects DefaultBaseURL; timeout bounds each request.
func NewClient(baseURL, key string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type metadataResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	PanoID       string `json:"pano_id"`
	Location     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// FindNear returns the panorama closest to p within radius meters. When no
// imagery exists there it returns geoguess.ErrNoPanorama.
func (c *Client) FindNear(ctx context.Context, p geoguess.Point, radius int, outdoorOnly bool) (geoguess.Panorama, error) {
	q := url.Values{}
	q.Set("location", p.String())
	q.Set("radius", strconv.Itoa(radius))
	if outdoorOnly {
		q.Set("source", "outdoor")
	}
	q.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metadata?"+q.Encode(), nil)
	if err != nil {
		return geoguess.Panorama{}, fmt.Errorf("building metadata request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDurationMs.WithLabelValues(service).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return geoguess.Panorama{}, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return geoguess.Panorama{}, fmt.Errorf("metadata request: unexpected status %d", resp.StatusCode)
	}

	var m metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return geoguess.Panorama{}, fmt.Errorf("decoding metadata: %w", err)
	}

	c.logger.Debug("streetview metadata", "location", p.String(), "radius", radius, "status", m.Status, "pano_id", m.PanoID)

	switch {
	case m.Status == "ZERO_RESULTS", m.Status == "OK" && m.PanoID == "":
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "empty").Inc()
		return geoguess.Panorama{}, geoguess.ErrNoPanorama
	case m.Status != "OK":
		// OVER_QUERY_LIMIT, REQUEST_DENIED and the like are not an absence
		// of imagery.
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return geoguess.Panorama{}, fmt.Errorf("metadata request: %s %s", m.Status, m.ErrorMessage)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(service, "ok").Inc()
	return geoguess.Panorama{
		ID:       m.PanoID,
		Location: geoguess.Point{Lat: m.Location.Lat, Lng: m.Location.Lng},
	}, nil
}
