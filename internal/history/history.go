// Package history records finished rounds in SQLite. Live rounds are never
// stored here; the table only grows when a round is won or stopped.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/geoguess"
)

// Round is a finished game as stored.
type Round struct {
	ID          string         `json:"id"`
	Channel     string         `json:"channel"`
	CountryCode string         `json:"countryCode"`
	CountryName string         `json:"countryName"`
	PanoID      string         `json:"panoId"`
	Location    geoguess.Point `json:"location"`
	Outcome     string         `json:"outcome"`
	FinishedBy  string         `json:"finishedBy,omitempty"`
	Incorrect   []string       `json:"incorrect"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     time.Time      `json:"endedAt"`
}

// Stats summarizes a channel's finished rounds.
type Stats struct {
	Rounds  int `json:"rounds"`
	Won     int `json:"won"`
	Stopped int `json:"stopped"`
}

// timeLayout is fixed width so ended_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// New expects db to be migrated already.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RoundFromSnapshot converts a finished session. It fails for sessions that
// have not ended.
func RoundFromSnapshot(s game.Snapshot) (Round, error) {
	r := Round{
		ID:          s.ID,
		Channel:     s.Channel,
		CountryCode: s.Region.Code,
		CountryName: s.Region.Name,
		PanoID:      s.Panorama.ID,
		Location:    s.Panorama.Location,
		Incorrect:   s.Incorrect,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
	switch s.Status {
	case game.StatusWon:
		r.Outcome, r.FinishedBy = "won", s.Winner
	case game.StatusStopped:
		r.Outcome, r.FinishedBy = "stopped", s.StoppedBy
	default:
		return Round{}, fmt.Errorf("session %s has not finished (status %s)", s.ID, s.Status)
	}
	return r, nil
}

// Record stores a finished session.
func (s *Store) Record(ctx context.Context, snap game.Snapshot) error {
	r, err := RoundFromSnapshot(snap)
	if err != nil {
		return err
	}
	incorrect, err := json.Marshal(r.Incorrect)
	if err != nil {
		return fmt.Errorf("encoding incorrect guesses: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (id, channel_id, country_code, country_name, pano_id, lat, lng,
			outcome, finished_by, incorrect_guesses, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Channel, r.CountryCode, r.CountryName, r.PanoID, r.Location.Lat, r.Location.Lng,
		r.Outcome, r.FinishedBy, string(incorrect),
		r.StartedAt.UTC().Format(timeLayout), r.EndedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting round %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit rounds of channel, newest first.
func (s *Store) Recent(ctx context.Context, channel string, limit int) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel_id, country_code, country_name, pano_id, lat, lng,
			outcome, finished_by, incorrect_guesses, started_at, ended_at
		FROM rounds
		WHERE channel_id = ?
		ORDER BY ended_at DESC
		LIMIT ?
	`, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rounds: %w", err)
	}
	defer rows.Close()

	out := []Round{}
	for rows.Next() {
		var (
			r                  Round
			incorrect          string
			startedAt, endedAt string
		)
		if err := rows.Scan(&r.ID, &r.Channel, &r.CountryCode, &r.CountryName, &r.PanoID,
			&r.Location.Lat, &r.Location.Lng, &r.Outcome, &r.FinishedBy, &incorrect,
			&startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning round: %w", err)
		}
		if err := json.Unmarshal([]byte(incorrect), &r.Incorrect); err != nil {
			return nil, fmt.Errorf("decoding incorrect guesses of %s: %w", r.ID, err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.EndedAt, _ = time.Parse(timeLayout, endedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts the finished rounds of channel by outcome.
func (s *Store) Stats(ctx context.Context, channel string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'won' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'stopped' THEN 1 ELSE 0 END), 0)
		FROM rounds WHERE channel_id = ?
	`, channel).Scan(&st.Rounds, &st.Won, &st.Stopped)
	if err != nil {
		return Stats{}, fmt.Errorf("counting rounds: %w", err)
	}
	return st, nil
}
