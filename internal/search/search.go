// Package search finds a street-level panorama inside a target country by
// sampling random points in its bounding box and confirming each hit with a
// reverse geocoder.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/metrics"
)

// DefaultMaxAttempts bounds a search when no explicit limit is configured.
const DefaultMaxAttempts = 30

// RadiusTiers are the search radii in meters, cycled by attempt number.
var RadiusTiers = [...]int{1_000, 10_000, 100_000, 1_000_000}

// Imagery finds the nearest panorama to a point.
type Imagery interface {
	FindNear(ctx context.Context, p geoguess.Point, radius int, outdoorOnly bool) (geoguess.Panorama, error)
}

// Geocoder names the country a coordinate lies in.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p geoguess.Point) (string, error)
}

type Options struct {
	// MaxAttempts defaults to DefaultMaxAttempts.
	MaxAttempts int
	// Pacing is the minimum gap between two upstream attempts, shared by
	// every search running on the Finder. Zero disables pacing.
	Pacing time.Duration
	// Rand seeds point sampling. A nil Rand uses a randomly seeded source.
	Rand *rand.Rand
}

type Finder struct {
	imagery     Imagery
	geocoder    Geocoder
	maxAttempts int
	limiter     *rate.Limiter
	logger      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(imagery Imagery, geocoder Geocoder, logger *slog.Logger, opts Options) *Finder {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	limit := rate.Inf
	if opts.Pacing > 0 {
		limit = rate.Every(opts.Pacing)
	}
	return &Finder{
		imagery:     imagery,
		geocoder:    geocoder,
		maxAttempts: opts.MaxAttempts,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
		rng:         opts.Rand,
	}
}

// Find searches region with the configured attempt limit.
func (f *Finder) Find(ctx context.Context, region geoguess.Region) (geoguess.PanoramaRef, error) {
	return f.FindN(ctx, region, f.maxAttempts)
}

// FindN returns the first panorama whose reverse geocoded country equals
// region.Code, making at most maxAttempts imagery lookups. Upstream
// failures count as misses. It returns geoguess.ErrSearchExhausted when no
// attempt matched and ctx.Err() when ctx ends first.
func (f *Finder) FindN(ctx context.Context, region geoguess.Region, maxAttempts int) (geoguess.PanoramaRef, error) {
	box := region.Bounds
	if box == (geoguess.BoundingBox{}) {
		box = geoguess.WorldBox
	}
	log := f.logger.With("country", region.Code)
	log.Info("searching for panorama", "bounds", box, "max_attempts", maxAttempts)

	for attempt := range maxAttempts {
		if err := f.limiter.Wait(ctx); err != nil {
			metrics.SearchesTotal.WithLabelValues("canceled").Inc()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return geoguess.PanoramaRef{}, ctxErr
			}
			return geoguess.PanoramaRef{}, fmt.Errorf("pacing search: %w", err)
		}

		point := f.sample(box)
		radius := Radius(attempt)

		pano, err := f.imagery.FindNear(ctx, point, radius, true)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				metrics.SearchesTotal.WithLabelValues("canceled").Inc()
				return geoguess.PanoramaRef{}, ctxErr
			}
			if errors.Is(err, geoguess.ErrNoPanorama) {
				metrics.SearchAttemptsTotal.WithLabelValues("no_panorama").Inc()
			} else {
				metrics.SearchAttemptsTotal.WithLabelValues("upstream_error").Inc()
				log.Warn("imagery lookup failed", "attempt", attempt+1, "error", err)
			}
			continue
		}

		code, err := f.geocoder.ReverseGeocode(ctx, pano.Location)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				metrics.SearchesTotal.WithLabelValues("canceled").Inc()
				return geoguess.PanoramaRef{}, ctxErr
			}
			if errors.Is(err, geoguess.ErrNoCountry) {
				metrics.SearchAttemptsTotal.WithLabelValues("no_country").Inc()
			} else {
				metrics.SearchAttemptsTotal.WithLabelValues("upstream_error").Inc()
				log.Warn("reverse geocode failed", "attempt", attempt+1, "error", err)
			}
			continue
		}

		if code != region.Code {
			metrics.SearchAttemptsTotal.WithLabelValues("mismatch").Inc()
			log.Debug("panorama in another country",
				"attempt", attempt+1, "radius", radius, "found", code, "pano_id", pano.ID)
			continue
		}

		metrics.SearchAttemptsTotal.WithLabelValues("match").Inc()
		metrics.SearchesTotal.WithLabelValues("found").Inc()
		metrics.SearchAttemptsPerSearch.Observe(float64(attempt + 1))
		log.Info("found panorama", "attempt", attempt+1, "radius", radius, "pano_id", pano.ID)

		return geoguess.PanoramaRef{
			ID:          pano.ID,
			Location:    pano.Location,
			CountryCode: region.Code,
			CountryName: region.Name,
		}, nil
	}

	metrics.SearchesTotal.WithLabelValues("exhausted").Inc()
	log.Warn("search exhausted", "attempts", maxAttempts)
	return geoguess.PanoramaRef{}, geoguess.ErrSearchExhausted
}

func (f *Finder) sample(box geoguess.BoundingBox) geoguess.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Sample(f.rng, box)
}

// Sample draws a point uniformly from box.
func Sample(rng *rand.Rand, box geoguess.BoundingBox) geoguess.Point {
	return geoguess.Point{
		Lat: box.South + rng.Float64()*(box.North-box.South),
		Lng: box.West + rng.Float64()*(box.East-box.West),
	}
}

// Radius returns the search radius for a zero-based attempt number.
func Radius(attempt int) int {
	return RadiusTiers[attempt%len(RadiusTiers)]
}
