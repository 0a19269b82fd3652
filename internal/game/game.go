// Package game holds the per-channel guessing sessions. A Manager is the
// arena: it maps channel ids to sessions and serializes every state change
// of a channel.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/metrics"
)

// DefaultStopMinElapsed is how long a round must run before it can be stopped.
const DefaultStopMinElapsed = time.Minute

type Status string

const (
	StatusIdle      Status = "idle"
	StatusSearching Status = "searching"
	StatusActive    Status = "active"
	StatusWon       Status = "won"
	StatusStopped   Status = "stopped"
)

// Finder locates a panorama inside a region.
type Finder interface {
	Find(ctx context.Context, region geoguess.Region) (geoguess.PanoramaRef, error)
}

// Resolver turns guess text into a country code.
type Resolver interface {
	Resolve(text string) countries.Resolution
}

// session is the mutable per-channel record. It is only touched with
// Manager.mu held.
type session struct {
	id        string
	channel   string
	status    Status
	region    geoguess.Region
	panorama  geoguess.PanoramaRef
	startedAt time.Time
	endedAt   time.Time
	winner    string
	stoppedBy string
	incorrect []string
	seen      map[string]struct{}
}

// Snapshot is an immutable copy of a session.
type Snapshot struct {
	ID        string               `json:"id"`
	Channel   string               `json:"channel"`
	Status    Status               `json:"status"`
	Region    geoguess.Region      `json:"region"`
	Panorama  geoguess.PanoramaRef `json:"panorama"`
	StartedAt time.Time            `json:"startedAt"`
	EndedAt   time.Time            `json:"endedAt,omitzero"`
	Winner    string               `json:"winner,omitempty"`
	StoppedBy string               `json:"stoppedBy,omitempty"`
	Incorrect []string             `json:"incorrect"`
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		Channel:   s.channel,
		Status:    s.status,
		Region:    s.region,
		Panorama:  s.panorama,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
		Winner:    s.winner,
		StoppedBy: s.stoppedBy,
		Incorrect: append([]string{}, s.incorrect...),
	}
}

type Options struct {
	StopMinElapsed time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

type Manager struct {
	finder         Finder
	resolver       Resolver
	stopMinElapsed time.Duration
	now            func() time.Time
	logger         *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	last     map[string]*session
}

// NewManager returns an empty arena. finder may be nil, in which case
// starting a round fails with geoguess.ErrFeatureDisabled.
func NewManager(finder Finder, resolver Resolver, logger *slog.Logger, opts Options) *Manager {
	if opts.StopMinElapsed <= 0 {
		opts.StopMinElapsed = DefaultStopMinElapsed
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		finder:         finder,
		resolver:       resolver,
		stopMinElapsed: opts.StopMinElapsed,
		now:            opts.Now,
		logger:         logger,
		sessions:       make(map[string]*session),
		last:           make(map[string]*session),
	}
}

// Enabled reports whether rounds can be started.
func (m *Manager) Enabled() bool { return m.finder != nil }

// Start begins a round for region in channel. The channel is reserved for
// the duration of the search so a concurrent Start fails with
// geoguess.ErrGameInProgress. If the reservation is released while the
// search runs, the result is discarded with geoguess.ErrStaleSearch.
func (m *Manager) Start(ctx context.Context, channel string, region geoguess.Region) (Snapshot, error) {
	if m.finder == nil {
		return Snapshot{}, geoguess.ErrFeatureDisabled
	}

	m.mu.Lock()
	if _, busy := m.sessions[channel]; busy {
		m.mu.Unlock()
		return Snapshot{}, geoguess.ErrGameInProgress
	}
	gen := uuid.NewString()
	m.sessions[channel] = &session{
		id:      gen,
		channel: channel,
		status:  StatusSearching,
		region:  region,
		seen:    make(map[string]struct{}),
	}
	m.mu.Unlock()

	ref, err := m.finder.Find(ctx, region)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[channel]
	if !ok || s.id != gen {
		m.logger.Info("discarding stale search result", "channel", channel, "session", gen)
		return Snapshot{}, geoguess.ErrStaleSearch
	}
	if err != nil {
		delete(m.sessions, channel)
		metrics.GamesTotal.WithLabelValues("failed").Inc()
		return Snapshot{}, fmt.Errorf("starting round in %s: %w", region.Code, err)
	}

	s.status = StatusActive
	s.panorama = ref
	s.startedAt = m.now()
	metrics.GamesTotal.WithLabelValues("started").Inc()
	metrics.ActiveGames.Inc()
	m.logger.Info("round started", "channel", channel, "session", gen, "country", region.Code, "pano_id", ref.ID)
	return s.snapshot(), nil
}

// Cancel releases a channel whose search has not finished yet. It returns
// false when the channel has no pending search.
func (m *Manager) Cancel(channel string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	if !ok || s.status != StatusSearching {
		return false
	}
	delete(m.sessions, channel)
	return true
}

// Outcome classifies a guess.
type Outcome string

const (
	GuessIgnored   Outcome = "ignored"
	GuessCorrect   Outcome = "correct"
	GuessIncorrect Outcome = "incorrect"
)

// GuessResult reports what a guess did. Session is the state after the
// guess; for a correct guess it is the finished round.
type GuessResult struct {
	Outcome Outcome  `json:"outcome"`
	Code    string   `json:"code,omitempty"`
	Session Snapshot `json:"session"`
}

// Guess evaluates text from player against the channel's active round.
// Text that resolves to no country leaves the round untouched.
func (m *Manager) Guess(channel, player, text string) (GuessResult, error) {
	res := m.resolver.Resolve(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[channel]
	if !ok || s.status != StatusActive {
		return GuessResult{}, geoguess.ErrNoActiveGame
	}

	if !res.Resolved() {
		return GuessResult{Outcome: GuessIgnored, Session: s.snapshot()}, nil
	}

	if res.Code == s.region.Code {
		s.status = StatusWon
		s.winner = player
		s.endedAt = m.now()
		m.finish(s)
		metrics.GuessesTotal.WithLabelValues(string(GuessCorrect)).Inc()
		metrics.GamesTotal.WithLabelValues("won").Inc()
		m.logger.Info("round won", "channel", channel, "session", s.id, "winner", player)
		return GuessResult{Outcome: GuessCorrect, Code: res.Code, Session: s.snapshot()}, nil
	}

	if _, dup := s.seen[res.Code]; !dup {
		s.seen[res.Code] = struct{}{}
		s.incorrect = append(s.incorrect, res.Code)
	}
	metrics.GuessesTotal.WithLabelValues(string(GuessIncorrect)).Inc()
	return GuessResult{Outcome: GuessIncorrect, Code: res.Code, Session: s.snapshot()}, nil
}

// TooEarlyError carries how long a stop request has to wait.
type TooEarlyError struct {
	Remaining time.Duration
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("game cannot be stopped for another %s", e.Remaining.Round(time.Second))
}

func (e *TooEarlyError) Unwrap() error { return geoguess.ErrStopTooEarly }

// Stop ends the channel's active round and reveals it. A round younger
// than the configured minimum stays active and a *TooEarlyError is returned.
func (m *Manager) Stop(channel, by string) (Snapshot, error) {
	return m.stop(channel, by, false)
}

// ForceStop ends the round without the minimum age check.
func (m *Manager) ForceStop(channel, by string) (Snapshot, error) {
	return m.stop(channel, by, true)
}

func (m *Manager) stop(channel, by string, force bool) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[channel]
	if !ok || s.status != StatusActive {
		return Snapshot{}, geoguess.ErrNoActiveGame
	}

	now := m.now()
	if elapsed := now.Sub(s.startedAt); !force && elapsed < m.stopMinElapsed {
		return Snapshot{}, &TooEarlyError{Remaining: m.stopMinElapsed - elapsed}
	}

	s.status = StatusStopped
	s.stoppedBy = by
	s.endedAt = now
	m.finish(s)
	metrics.GamesTotal.WithLabelValues("stopped").Inc()
	m.logger.Info("round stopped", "channel", channel, "session", s.id, "by", by, "forced", force)
	return s.snapshot(), nil
}

// finish moves s out of the arena. Must be called with m.mu held.
func (m *Manager) finish(s *session) {
	delete(m.sessions, s.channel)
	m.last[s.channel] = s
	metrics.ActiveGames.Dec()
}

// Hint finds another panorama in the active round's country. The round
// itself is not modified; if it ends while the search runs the result is
// dropped with geoguess.ErrStaleSearch.
func (m *Manager) Hint(ctx context.Context, channel string) (geoguess.PanoramaRef, error) {
	if m.finder == nil {
		return geoguess.PanoramaRef{}, geoguess.ErrFeatureDisabled
	}

	m.mu.Lock()
	s, ok := m.sessions[channel]
	if !ok || s.status != StatusActive {
		m.mu.Unlock()
		return geoguess.PanoramaRef{}, geoguess.ErrNoActiveGame
	}
	gen, region := s.id, s.region
	m.mu.Unlock()

	ref, err := m.finder.Find(ctx, region)
	if err != nil {
		return geoguess.PanoramaRef{}, fmt.Errorf("finding hint in %s: %w", region.Code, err)
	}

	if !m.isCurrent(channel, gen) {
		return geoguess.PanoramaRef{}, geoguess.ErrStaleSearch
	}
	return ref, nil
}

func (m *Manager) isCurrent(channel, gen string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	return ok && s.id == gen && s.status == StatusActive
}

// Current returns the channel's live session, which may still be searching.
func (m *Manager) Current(channel string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Active reports whether channel has a round accepting guesses.
func (m *Manager) Active(channel string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	return ok && s.status == StatusActive
}

// LastFinished returns the most recent round that ended in channel.
func (m *Manager) LastFinished(channel string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.last[channel]
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Progress returns the incorrect guesses that continent views should show
// and whether a round is in progress. A won round clears the board; a
// stopped one leaves its guesses visible until the next start.
func (m *Manager) Progress(channel string) (incorrect []string, inProgress bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[channel]; ok {
		return append([]string{}, s.incorrect...), s.status == StatusActive
	}
	if s, ok := m.last[channel]; ok && s.status == StatusStopped {
		return append([]string{}, s.incorrect...), false
	}
	return []string{}, false
}
