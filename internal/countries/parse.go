package countries

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/playperu/streetguess/internal/geoguess"
)

// ParseNames reads "Name<TAB>CODE" rows. Blank lines are skipped; any other
// row that does not have exactly two fields is an error.
func ParseNames(r io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, "\t")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s:%d: want \"name<TAB>code\", got %q", NamesFile, line, raw)
		}
		name, code := strings.TrimSpace(parts[0]), strings.ToLower(strings.TrimSpace(parts[1]))
		if name == "" || !geoguess.IsCountryCode(code) {
			return nil, fmt.Errorf("%s:%d: invalid row %q", NamesFile, line, raw)
		}
		out = append(out, Entry{Name: name, Code: code})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", NamesFile, err)
	}
	return out, nil
}

// ParseBounds reads "code south west north east" rows. Lines starting with
// '#' and blank lines are skipped; trailing '#' comments are allowed.
func ParseBounds(r io.Reader) (map[string]geoguess.BoundingBox, error) {
	out := make(map[string]geoguess.BoundingBox)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return nil, fmt.Errorf("%s:%d: want 5 fields, got %d", BoundsFile, line, len(fields))
		}
		code := strings.ToLower(fields[0])
		if !geoguess.IsCountryCode(code) {
			return nil, fmt.Errorf("%s:%d: invalid country code %q", BoundsFile, line, fields[0])
		}
		var v [4]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: parsing coordinate %q: %w", BoundsFile, line, fields[i+1], err)
			}
			v[i] = f
		}
		box := geoguess.BoundingBox{South: v[0], West: v[1], North: v[2], East: v[3]}
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("%s:%d: %s: %w", BoundsFile, line, code, err)
		}
		if _, dup := out[code]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate bounds for %q", BoundsFile, line, code)
		}
		out[code] = box
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", BoundsFile, err)
	}
	return out, nil
}

// ParseContinents reads the continent grouping document, a JSON object of
// continent name to country code list. Codes are lowercased.
func ParseContinents(r io.Reader) (map[string][]string, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ContinentsFile, err)
	}
	out := make(map[string][]string, len(raw))
	for name, codes := range raw {
		list := make([]string, 0, len(codes))
		for _, c := range codes {
			c = strings.ToLower(strings.TrimSpace(c))
			if !geoguess.IsCountryCode(c) {
				return nil, fmt.Errorf("%s: %s: invalid country code %q", ContinentsFile, name, c)
			}
			list = append(list, c)
		}
		out[name] = list
	}
	return out, nil
}
