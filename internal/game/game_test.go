package game_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/geoguess"
)

var japan = geoguess.Region{
	Code:   "jp",
	Name:   "Japan",
	Bounds: geoguess.BoundingBox{South: 24.2, West: 122.9, North: 45.6, East: 153.9},
}

func testTable(t *testing.T) *countries.Table {
	t.Helper()
	table, err := countries.New([]countries.Entry{
		{Name: "Japan", Code: "jp"},
		{Name: "United States", Code: "us"},
		{Name: "South Korea", Code: "kr"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("countries.New: %v", err)
	}
	return table
}

// stubFinder returns a fixed result. When gate is set, Find blocks until
// the gate is closed or ctx ends.
type stubFinder struct {
	mu    sync.Mutex
	ref   geoguess.PanoramaRef
	err   error
	calls int
	gate  chan struct{}
}

func (f *stubFinder) Find(ctx context.Context, region geoguess.Region) (geoguess.PanoramaRef, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return geoguess.PanoramaRef{}, ctx.Err()
		}
	}
	if f.err != nil {
		return geoguess.PanoramaRef{}, f.err
	}
	ref := f.ref
	ref.CountryCode = region.Code
	ref.CountryName = region.Name
	return ref, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, f game.Finder) (*game.Manager, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := game.NewManager(f, testTable(t), slog.Default(), game.Options{
		StopMinElapsed: time.Minute,
		Now:            clk.Now,
	})
	return m, clk
}

func startJapan(t *testing.T, m *game.Manager, channel string) game.Snapshot {
	t.Helper()
	snap, err := m.Start(context.Background(), channel, japan)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return snap
}

func TestStart(t *testing.T) {
	f := &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}}
	m, clk := newManager(t, f)

	snap := startJapan(t, m, "c1")
	if snap.Status != game.StatusActive {
		t.Errorf("status = %q, want active", snap.Status)
	}
	if snap.Panorama.ID != "P" || snap.Region.Code != "jp" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.StartedAt.Equal(clk.Now()) {
		t.Errorf("startedAt = %v, want %v", snap.StartedAt, clk.Now())
	}
	if len(snap.Incorrect) != 0 {
		t.Errorf("incorrect = %v, want empty", snap.Incorrect)
	}
	if snap.ID == "" {
		t.Error("session id is empty")
	}
	if !m.Active("c1") {
		t.Error("Active(c1) = false")
	}
}

func TestStartWhileActive(t *testing.T) {
	m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")

	if _, err := m.Start(context.Background(), "c1", japan); !errors.Is(err, geoguess.ErrGameInProgress) {
		t.Fatalf("second Start error = %v, want ErrGameInProgress", err)
	}
	// Another channel is independent.
	startJapan(t, m, "c2")
}

func TestStartWhileSearching(t *testing.T) {
	f := &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}, gate: make(chan struct{})}
	m, _ := newManager(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := m.Start(context.Background(), "c1", japan)
		done <- err
	}()

	waitFor(t, func() bool {
		s, ok := m.Current("c1")
		return ok && s.Status == game.StatusSearching
	})

	if _, err := m.Start(context.Background(), "c1", japan); !errors.Is(err, geoguess.ErrGameInProgress) {
		t.Fatalf("Start during search error = %v, want ErrGameInProgress", err)
	}
	if _, err := m.Guess("c1", "p", "jp"); !errors.Is(err, geoguess.ErrNoActiveGame) {
		t.Fatalf("Guess during search error = %v, want ErrNoActiveGame", err)
	}

	close(f.gate)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestStartExhausted(t *testing.T) {
	m, _ := newManager(t, &stubFinder{err: geoguess.ErrSearchExhausted})

	if _, err := m.Start(context.Background(), "c1", japan); !errors.Is(err, geoguess.ErrSearchExhausted) {
		t.Fatalf("error = %v, want ErrSearchExhausted", err)
	}
	if _, ok := m.Current("c1"); ok {
		t.Error("channel not released after failed search")
	}
}

func TestStartDisabled(t *testing.T) {
	m := game.NewManager(nil, testTable(t), slog.Default(), game.Options{})
	if m.Enabled() {
		t.Error("Enabled() = true without finder")
	}
	if _, err := m.Start(context.Background(), "c1", japan); !errors.Is(err, geoguess.ErrFeatureDisabled) {
		t.Fatalf("error = %v, want ErrFeatureDisabled", err)
	}
}

func TestStaleStartDiscarded(t *testing.T) {
	f := &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}, gate: make(chan struct{})}
	m, _ := newManager(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := m.Start(context.Background(), "c1", japan)
		done <- err
	}()

	waitFor(t, func() bool { _, ok := m.Current("c1"); return ok })
	if !m.Cancel("c1") {
		t.Fatal("Cancel returned false")
	}
	close(f.gate)

	if err := <-done; !errors.Is(err, geoguess.ErrStaleSearch) {
		t.Fatalf("error = %v, want ErrStaleSearch", err)
	}
	if _, ok := m.Current("c1"); ok {
		t.Error("stale search revived the channel")
	}
}

func TestGuess(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantOutcome game.Outcome
		wantCode    string
	}{
		{"code", "jp", game.GuessCorrect, "jp"},
		{"upper code", " JP ", game.GuessCorrect, "jp"},
		{"name", "japan", game.GuessCorrect, "jp"},
		{"wrong code", "kr", game.GuessIncorrect, "kr"},
		{"wrong name", "  United States  ", game.GuessIncorrect, "us"},
		{"unknown code", "zz", game.GuessIncorrect, "zz"},
		{"unresolved", "usa", game.GuessIgnored, ""},
		{"chatter", "nice view!", game.GuessIgnored, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
			startJapan(t, m, "c1")

			res, err := m.Guess("c1", "alice", tt.text)
			if err != nil {
				t.Fatalf("Guess: %v", err)
			}
			if res.Outcome != tt.wantOutcome || res.Code != tt.wantCode {
				t.Errorf("got %+v, want %s/%s", res, tt.wantOutcome, tt.wantCode)
			}

			switch tt.wantOutcome {
			case game.GuessCorrect:
				if res.Session.Status != game.StatusWon || res.Session.Winner != "alice" {
					t.Errorf("session = %+v", res.Session)
				}
				if m.Active("c1") {
					t.Error("round still active after win")
				}
			case game.GuessIncorrect:
				if len(res.Session.Incorrect) != 1 || res.Session.Incorrect[0] != tt.wantCode {
					t.Errorf("incorrect = %v", res.Session.Incorrect)
				}
			case game.GuessIgnored:
				if len(res.Session.Incorrect) != 0 {
					t.Errorf("ignored guess changed incorrect set: %v", res.Session.Incorrect)
				}
				if !m.Active("c1") {
					t.Error("ignored guess ended the round")
				}
			}
		})
	}
}

func TestGuessAfterWin(t *testing.T) {
	m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")

	if _, err := m.Guess("c1", "alice", "jp"); err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if _, err := m.Guess("c1", "bob", "jp"); !errors.Is(err, geoguess.ErrNoActiveGame) {
		t.Fatalf("post-win Guess error = %v, want ErrNoActiveGame", err)
	}

	last, ok := m.LastFinished("c1")
	if !ok || last.Status != game.StatusWon || last.Winner != "alice" {
		t.Errorf("LastFinished = %+v, %v", last, ok)
	}
}

func TestIncorrectSetGrowsMonotonically(t *testing.T) {
	m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")

	var prev []string
	for _, text := range []string{"kr", "us", "hello", "kr", "united states", "fr"} {
		res, err := m.Guess("c1", "p", text)
		if err != nil {
			t.Fatalf("Guess(%q): %v", text, err)
		}
		cur := res.Session.Incorrect
		if len(cur) < len(prev) {
			t.Fatalf("incorrect set shrank from %v to %v", prev, cur)
		}
		for i := range prev {
			if cur[i] != prev[i] {
				t.Fatalf("incorrect set reordered: %v -> %v", prev, cur)
			}
		}
		prev = cur
	}

	want := []string{"kr", "us", "fr"}
	if len(prev) != len(want) {
		t.Fatalf("incorrect = %v, want %v", prev, want)
	}
	for i := range want {
		if prev[i] != want[i] {
			t.Fatalf("incorrect = %v, want %v", prev, want)
		}
	}
}

func TestGuessWithoutGame(t *testing.T) {
	m, _ := newManager(t, &stubFinder{})
	if _, err := m.Guess("c1", "p", "jp"); !errors.Is(err, geoguess.ErrNoActiveGame) {
		t.Fatalf("error = %v, want ErrNoActiveGame", err)
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")
	startJapan(t, m, "c2")

	if _, err := m.Guess("c1", "p", "kr"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Guess("c1", "p", "jp"); err != nil {
		t.Fatal(err)
	}

	s2, ok := m.Current("c2")
	if !ok || s2.Status != game.StatusActive || len(s2.Incorrect) != 0 {
		t.Errorf("c2 = %+v, %v", s2, ok)
	}
}

func TestStop(t *testing.T) {
	m, clk := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")

	clk.Advance(30 * time.Second)
	_, err := m.Stop("c1", "mod")
	if !errors.Is(err, geoguess.ErrStopTooEarly) {
		t.Fatalf("early Stop error = %v, want ErrStopTooEarly", err)
	}
	var tooEarly *game.TooEarlyError
	if !errors.As(err, &tooEarly) || tooEarly.Remaining != 30*time.Second {
		t.Errorf("TooEarlyError = %+v", tooEarly)
	}
	if !m.Active("c1") {
		t.Fatal("early stop ended the round")
	}

	clk.Advance(31 * time.Second)
	snap, err := m.Stop("c1", "mod")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if snap.Status != game.StatusStopped || snap.StoppedBy != "mod" || snap.Panorama.ID != "P" {
		t.Errorf("snapshot = %+v", snap)
	}
	if m.Active("c1") {
		t.Error("round active after stop")
	}
	if _, err := m.Stop("c1", "mod"); !errors.Is(err, geoguess.ErrNoActiveGame) {
		t.Errorf("second Stop error = %v, want ErrNoActiveGame", err)
	}
}

func TestForceStop(t *testing.T) {
	m, _ := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})
	startJapan(t, m, "c1")

	snap, err := m.ForceStop("c1", "admin")
	if err != nil {
		t.Fatalf("ForceStop: %v", err)
	}
	if snap.Status != game.StatusStopped {
		t.Errorf("status = %q", snap.Status)
	}
}

func TestHint(t *testing.T) {
	f := &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}}
	m, _ := newManager(t, f)

	if _, err := m.Hint(context.Background(), "c1"); !errors.Is(err, geoguess.ErrNoActiveGame) {
		t.Fatalf("Hint without game error = %v", err)
	}

	startJapan(t, m, "c1")
	f.mu.Lock()
	f.ref = geoguess.PanoramaRef{ID: "H"}
	f.mu.Unlock()

	ref, err := m.Hint(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if ref.ID != "H" || ref.CountryCode != "jp" {
		t.Errorf("hint = %+v", ref)
	}

	snap, _ := m.Current("c1")
	if snap.Panorama.ID != "P" {
		t.Errorf("hint replaced the round panorama: %+v", snap.Panorama)
	}
}

func TestHintDroppedWhenRoundEnds(t *testing.T) {
	f := &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}}
	m, _ := newManager(t, f)
	startJapan(t, m, "c1")

	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := m.Hint(context.Background(), "c1")
		done <- err
	}()

	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 2
	})
	if _, err := m.Guess("c1", "p", "jp"); err != nil {
		t.Fatal(err)
	}
	close(gate)

	if err := <-done; !errors.Is(err, geoguess.ErrStaleSearch) {
		t.Fatalf("error = %v, want ErrStaleSearch", err)
	}
}

func TestProgress(t *testing.T) {
	m, clk := newManager(t, &stubFinder{ref: geoguess.PanoramaRef{ID: "P"}})

	if inc, active := m.Progress("c1"); len(inc) != 0 || active {
		t.Errorf("Progress before any round = %v, %v", inc, active)
	}

	startJapan(t, m, "c1")
	m.Guess("c1", "p", "kr")
	if inc, active := m.Progress("c1"); len(inc) != 1 || !active {
		t.Errorf("Progress during round = %v, %v", inc, active)
	}

	clk.Advance(2 * time.Minute)
	if _, err := m.Stop("c1", "mod"); err != nil {
		t.Fatal(err)
	}
	if inc, active := m.Progress("c1"); len(inc) != 1 || active {
		t.Errorf("Progress after stop = %v, %v", inc, active)
	}

	startJapan(t, m, "c1")
	m.Guess("c1", "p", "jp")
	if inc, active := m.Progress("c1"); len(inc) != 0 || active {
		t.Errorf("Progress after win = %v, %v", inc, active)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
