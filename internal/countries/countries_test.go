package countries_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/geoguess"
)

const namesFixture = "Japan\tJP\nUnited States\tUS\nSouth Korea\tKR\nFrance\tFR\n"

const boundsFixture = `# code south west north east
jp 24.2 122.9 45.6 153.9
us 24.5 -124.8 49.4 -66.9  # contiguous only

kr 33.1 124.6 38.6 131.9
`

const continentsFixture = `{"Europe": ["FR", "de"], "Asia": ["jp", "kr"], "Africa": [], "America": ["us"]}`

func loadFixture(t *testing.T) *countries.Table {
	t.Helper()
	table, err := countries.Load(fstest.MapFS{
		countries.NamesFile:      {Data: []byte(namesFixture)},
		countries.BoundsFile:     {Data: []byte(boundsFixture)},
		countries.ContinentsFile: {Data: []byte(continentsFixture)},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return table
}

func TestLoad(t *testing.T) {
	table := loadFixture(t)

	if table.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", table.Len())
	}

	jp, ok := table.Region("JP")
	if !ok {
		t.Fatal("Region(JP) not found")
	}
	if jp.Code != "jp" || jp.Name != "Japan" || jp.Bounds.North != 45.6 {
		t.Errorf("Region(JP) = %+v", jp)
	}

	fr, ok := table.Region("fr")
	if !ok {
		t.Fatal("Region(fr) not found")
	}
	if fr.Bounds != geoguess.WorldBox {
		t.Errorf("fr bounds = %+v, want world box", fr.Bounds)
	}
	if table.HasBounds("fr") {
		t.Error("HasBounds(fr) = true")
	}

	if _, ok := table.Region("zz"); ok {
		t.Error("Region(zz) found")
	}
	if got := table.Name("zz"); got != "ZZ" {
		t.Errorf("Name(zz) = %q, want ZZ", got)
	}
}

func TestLoadOptionalFiles(t *testing.T) {
	table, err := countries.Load(fstest.MapFS{
		countries.NamesFile: {Data: []byte(namesFixture)},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r, _ := table.Region("jp")
	if r.Bounds != geoguess.WorldBox {
		t.Errorf("bounds = %+v, want world box", r.Bounds)
	}
	eu, ok := table.Continent("eu")
	if !ok || len(eu.Codes) != 0 {
		t.Errorf("Continent(eu) = %+v, %v", eu, ok)
	}
}

func TestLoadRejectsBadData(t *testing.T) {
	tests := []struct {
		name       string
		names      string
		bounds     string
		continents string
		wantErr    string
	}{
		{name: "missing tab", names: "Japan JP\n", wantErr: "countries.txt:1"},
		{name: "three fields", names: "Japan\tJP\tAsia\n", wantErr: "countries.txt:1"},
		{name: "bad code", names: "Japan\tJ1\n", wantErr: "countries.txt:1"},
		{name: "duplicate name", names: "Japan\tJP\njapan\tJA\n", wantErr: "duplicate country name"},
		{name: "duplicate code", names: "Japan\tJP\nNippon\tjp\n", wantErr: "duplicate country code"},
		{name: "empty", names: "\n\n", wantErr: "empty"},
		{name: "bounds short row", names: namesFixture, bounds: "jp 1 2 3\n", wantErr: "country_bounds.txt:1"},
		{name: "bounds not a number", names: namesFixture, bounds: "# c\njp 1 2 x 4\n", wantErr: "country_bounds.txt:2"},
		{name: "bounds inverted", names: namesFixture, bounds: "jp 40 130 30 140\n", wantErr: "south"},
		{name: "bounds duplicate", names: namesFixture, bounds: "jp 1 2 3 4\njp 1 2 3 4\n", wantErr: "duplicate bounds"},
		{name: "bounds unknown code", names: namesFixture, bounds: "de 47 5 55 15\n", wantErr: "unknown country code"},
		{name: "continent bad code", names: namesFixture, continents: `{"Europe": ["fra"]}`, wantErr: "invalid country code"},
		{name: "continent bad json", names: namesFixture, continents: `{"Europe": }`, wantErr: "decoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{countries.NamesFile: {Data: []byte(tt.names)}}
			if tt.bounds != "" {
				fsys[countries.BoundsFile] = &fstest.MapFile{Data: []byte(tt.bounds)}
			}
			if tt.continents != "" {
				fsys[countries.ContinentsFile] = &fstest.MapFile{Data: []byte(tt.continents)}
			}
			_, err := countries.Load(fsys)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingNames(t *testing.T) {
	if _, err := countries.Load(fstest.MapFS{}); err == nil {
		t.Fatal("expected error for missing names file")
	}
}

func TestResolve(t *testing.T) {
	table := loadFixture(t)

	tests := []struct {
		in       string
		wantKind countries.ResolutionKind
		wantCode string
	}{
		{"jp", countries.ResolvedCode, "jp"},
		{" JP ", countries.ResolvedCode, "jp"},
		{"zz", countries.ResolvedCode, "zz"},
		{"  United States  ", countries.ResolvedName, "us"},
		{"south korea", countries.ResolvedName, "kr"},
		{"usa", countries.Unresolved, ""},
		{"j1", countries.Unresolved, ""},
		{"", countries.Unresolved, ""},
		{"hello there", countries.Unresolved, ""},
	}
	for _, tt := range tests {
		got := table.Resolve(tt.in)
		if got.Kind != tt.wantKind || got.Code != tt.wantCode {
			t.Errorf("Resolve(%q) = %+v, want kind %v code %q", tt.in, got, tt.wantKind, tt.wantCode)
		}
		if got.Resolved() != (tt.wantKind != countries.Unresolved) {
			t.Errorf("Resolve(%q).Resolved() = %v", tt.in, got.Resolved())
		}
	}
}

func TestRandom(t *testing.T) {
	table := loadFixture(t)
	for range 20 {
		r := table.Random()
		if _, ok := table.Region(r.Code); !ok {
			t.Fatalf("Random() returned unknown region %+v", r)
		}
	}
}

func TestContinent(t *testing.T) {
	table := loadFixture(t)

	eu, ok := table.Continent("EU")
	if !ok {
		t.Fatal("Continent(EU) not found")
	}
	if eu.Title != "Europe" || len(eu.Codes) != 2 || eu.Codes[0] != "fr" {
		t.Errorf("Continent(EU) = %+v", eu)
	}

	am, _ := table.Continent("am")
	if am.Title != "The Americas" {
		t.Errorf("am title = %q", am.Title)
	}

	if _, ok := table.Continent("oc"); ok {
		t.Error("Continent(oc) found")
	}
}

func TestLines(t *testing.T) {
	table := loadFixture(t)
	lines := table.Lines()
	if len(lines) != 4 || lines[0] != "Japan\tJP" || lines[3] != "France\tFR" {
		t.Errorf("Lines() = %q", lines)
	}
}

func TestPaginate(t *testing.T) {
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = "Country\tXX"
	}

	pages := countries.Paginate(lines, countries.LinesPerPage, countries.PageBudget)
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, p := range pages {
		if !strings.HasPrefix(p, "```\n") || !strings.HasSuffix(p, "\n```") {
			t.Errorf("page %d not a code block: %q", i, p)
		}
	}
	if n := strings.Count(pages[0], "Country"); n != 15 {
		t.Errorf("page 0 has %d lines, want 15", n)
	}
	if n := strings.Count(pages[2], "Country"); n != 10 {
		t.Errorf("page 2 has %d lines, want 10", n)
	}
}

func TestPaginateCharBudget(t *testing.T) {
	long := strings.Repeat("x", 300)
	lines := []string{long, long, long, long, long, long, long}

	pages := countries.Paginate(lines, countries.LinesPerPage, countries.PageBudget)
	for i, p := range pages {
		if len(p) > countries.PageBudget {
			t.Errorf("page %d is %d chars", i, len(p))
		}
	}
	if len(pages) < 2 {
		t.Errorf("got %d pages, want the budget to split the list", len(pages))
	}
}

func TestPaginateEmpty(t *testing.T) {
	if pages := countries.Paginate(nil, 15, 1900); len(pages) != 0 {
		t.Errorf("got %d pages, want 0", len(pages))
	}
}
