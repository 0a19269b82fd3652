// Package countries loads and validates the country reference tables:
// display names, bounding boxes and continent groupings.
package countries

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/samber/lo"

	"github.com/playperu/streetguess/internal/geoguess"
)

// File names looked up inside the data directory.
const (
	NamesFile      = "countries.txt"
	BoundsFile     = "country_bounds.txt"
	ContinentsFile = "continents.json"
)

// Entry is one row of the names table.
type Entry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Table is the immutable reference data shared by every channel.
type Table struct {
	entries    []Entry
	byName     map[string]string
	byCode     map[string]Entry
	bounds     map[string]geoguess.BoundingBox
	continents map[string][]string
}

// Load reads the reference files from fsys. The names file is required;
// a missing bounds file means every region searches the whole world and a
// missing continents file leaves continent views empty.
func Load(fsys fs.FS) (*Table, error) {
	f, err := fsys.Open(NamesFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", NamesFile, err)
	}
	entries, err := ParseNames(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	var bounds map[string]geoguess.BoundingBox
	if f, err := fsys.Open(BoundsFile); err == nil {
		bounds, err = ParseBounds(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", BoundsFile, err)
	}

	var continents map[string][]string
	if f, err := fsys.Open(ContinentsFile); err == nil {
		continents, err = ParseContinents(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", ContinentsFile, err)
	}

	return New(entries, bounds, continents)
}

// New builds a table, rejecting duplicate names or codes and bounds for
// codes the names table does not know.
func New(entries []Entry, bounds map[string]geoguess.BoundingBox, continents map[string][]string) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("country table is empty")
	}

	t := &Table{
		entries:    make([]Entry, 0, len(entries)),
		byName:     make(map[string]string, len(entries)),
		byCode:     make(map[string]Entry, len(entries)),
		bounds:     make(map[string]geoguess.BoundingBox, len(bounds)),
		continents: make(map[string][]string, len(continents)),
	}

	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		code := strings.ToLower(strings.TrimSpace(e.Code))
		if name == "" || !geoguess.IsCountryCode(code) {
			return nil, fmt.Errorf("invalid country entry %q/%q", e.Name, e.Code)
		}
		if prev, ok := t.byName[name]; ok {
			return nil, fmt.Errorf("duplicate country name %q (%s and %s)", e.Name, prev, code)
		}
		if prev, ok := t.byCode[code]; ok {
			return nil, fmt.Errorf("duplicate country code %q (%s and %s)", code, prev.Name, e.Name)
		}
		entry := Entry{Name: strings.TrimSpace(e.Name), Code: code}
		t.entries = append(t.entries, entry)
		t.byName[name] = code
		t.byCode[code] = entry
	}

	for code, box := range bounds {
		if _, ok := t.byCode[code]; !ok {
			return nil, fmt.Errorf("bounds for unknown country code %q", code)
		}
		t.bounds[code] = box
	}

	for name, codes := range continents {
		t.continents[name] = lo.Uniq(codes)
	}

	return t, nil
}

// Len returns the number of countries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the countries in file order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Name returns the display name for code, or the upper-cased code when it
// is unknown.
func (t *Table) Name(code string) string {
	if e, ok := t.byCode[strings.ToLower(code)]; ok {
		return e.Name
	}
	return strings.ToUpper(code)
}

// Region returns the searchable region for code.
func (t *Table) Region(code string) (geoguess.Region, bool) {
	code = strings.ToLower(code)
	e, ok := t.byCode[code]
	if !ok {
		return geoguess.Region{}, false
	}
	box, ok := t.bounds[code]
	if !ok {
		box = geoguess.WorldBox
	}
	return geoguess.Region{Code: code, Name: e.Name, Bounds: box}, true
}

// HasBounds reports whether code has its own bounding box.
func (t *Table) HasBounds(code string) bool {
	_, ok := t.bounds[strings.ToLower(code)]
	return ok
}

// Random picks a region uniformly from the table.
func (t *Table) Random() geoguess.Region {
	e := lo.Sample(t.entries)
	r, _ := t.Region(e.Code)
	return r
}

// Lines renders the table one country per line for the list viewer.
func (t *Table) Lines() []string {
	return lo.Map(t.entries, func(e Entry, _ int) string {
		return e.Name + "\t" + strings.ToUpper(e.Code)
	})
}
