// Package geoguess defines the core domain types and errors of the
// street view guessing game. It has no external dependencies.
package geoguess

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSearchExhausted is returned when every search attempt missed.
	ErrSearchExhausted = errors.New("no panorama found in the target country")
	// ErrNoPanorama means the imagery service has nothing near the sampled point.
	ErrNoPanorama = errors.New("no panorama near location")
	// ErrNoCountry means the geocoder could not name a country for a coordinate.
	ErrNoCountry = errors.New("no country for location")

	ErrNoActiveGame   = errors.New("no active game in this channel")
	ErrGameInProgress = errors.New("a game is already in progress in this channel")
	ErrStopTooEarly   = errors.New("game cannot be stopped yet")
	ErrStaleSearch    = errors.New("search result belongs to a finished game")

	// ErrFeatureDisabled is returned by game operations when the imagery
	// credential is missing.
	ErrFeatureDisabled = errors.New("street view game is not configured")
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats p as "lat,lng" the way map APIs expect it.
func (p Point) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// BoundingBox is an axis-aligned lat/lng rectangle.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// WorldBox covers the whole globe. Regions without bounds fall back to it.
var WorldBox = BoundingBox{South: -90, West: -180, North: 90, East: 180}

func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}

// Validate reports whether b is inside coordinate range and not inverted.
func (b BoundingBox) Validate() error {
	switch {
	case b.South < -90 || b.North > 90:
		return fmt.Errorf("latitude out of range [%g, %g]", b.South, b.North)
	case b.West < -180 || b.East > 180:
		return fmt.Errorf("longitude out of range [%g, %g]", b.West, b.East)
	case b.South > b.North:
		return fmt.Errorf("south %g is above north %g", b.South, b.North)
	case b.West > b.East:
		return fmt.Errorf("west %g is east of %g", b.West, b.East)
	}
	return nil
}

// Region is a country that can be the target of a round. Name keeps the
// casing of the reference data.
type Region struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Bounds BoundingBox `json:"bounds"`
}

// Label renders the region the way it is revealed to players.
func (r Region) Label() string {
	return fmt.Sprintf("%s (%s)", r.Name, strings.ToUpper(r.Code))
}

// Panorama is what the imagery service returns for a location query.
type Panorama struct {
	ID       string `json:"id"`
	Location Point  `json:"location"`
}

// PanoramaRef is a panorama confirmed to lie inside a given country.
type PanoramaRef struct {
	ID          string `json:"id"`
	Location    Point  `json:"location"`
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
}

// IsCountryCode reports whether s is a two letter ASCII alphabetic token.
func IsCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// FlagEmoji converts a two letter country code into its regional
// indicator pair. Invalid codes yield an empty string.
func FlagEmoji(code string) string {
	if !IsCountryCode(code) {
		return ""
	}
	code = strings.ToLower(code)
	var b strings.Builder
	for i := 0; i < 2; i++ {
		b.WriteRune(rune(0x1F1E6 + int(code[i]-'a')))
	}
	return b.String()
}
