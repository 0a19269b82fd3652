package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/streetguess/internal/bot"
	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/streetview"
)

// Answer reveals where a finished round was.
type Answer struct {
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	PanoID     string         `json:"panoId"`
	Location   geoguess.Point `json:"location"`
	ViewerLink string         `json:"viewerLink"`
}

// GameResponse is a channel's round as seen by players. The answer is
// only included once the round is over.
type GameResponse struct {
	Channel   string            `json:"channel"`
	Status    game.Status       `json:"status"`
	SessionID string            `json:"sessionId,omitempty"`
	StartedAt time.Time         `json:"startedAt,omitzero"`
	EndedAt   time.Time         `json:"endedAt,omitzero"`
	Incorrect []string          `json:"incorrect"`
	Views     []streetview.View `json:"views,omitempty"`
	Winner    string            `json:"winner,omitempty"`
	StoppedBy string            `json:"stoppedBy,omitempty"`
	Answer    *Answer           `json:"answer,omitempty"`
}

func newGameResponse(channel string, s game.Snapshot, images bot.Images) GameResponse {
	resp := GameResponse{
		Channel:   channel,
		Status:    s.Status,
		SessionID: s.ID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Incorrect: s.Incorrect,
		Winner:    s.Winner,
		StoppedBy: s.StoppedBy,
	}
	if resp.Incorrect == nil {
		resp.Incorrect = []string{}
	}
	if s.Panorama.ID != "" && images != nil {
		resp.Views = images.Views(s.Panorama.ID)
	}
	if s.Status == game.StatusWon || s.Status == game.StatusStopped {
		resp.Answer = &Answer{
			Code:       s.Region.Code,
			Name:       s.Region.Name,
			PanoID:     s.Panorama.ID,
			Location:   s.Panorama.Location,
			ViewerLink: streetview.ViewerLink(s.Panorama.ID),
		}
	}
	return resp
}

// handleGame returns the live round, or the last finished one when the
// channel is idle.
func handleGame(games *game.Manager, images bot.Images) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := chi.URLParam(r, "channel")

		if s, ok := games.Current(channel); ok {
			writeJSON(w, http.StatusOK, newGameResponse(channel, s, images))
			return
		}
		if s, ok := games.LastFinished(channel); ok {
			writeJSON(w, http.StatusOK, newGameResponse(channel, s, images))
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{
			Channel:   channel,
			Status:    game.StatusIdle,
			Incorrect: []string{},
		})
	}
}

type ForceStopResponse struct {
	// Canceled is set when a pending search was abandoned instead of a
	// round being stopped.
	Canceled bool          `json:"canceled"`
	Game     *GameResponse `json:"game,omitempty"`
}

// handleForceStop ends a channel's round regardless of its age, or drops
// a search that has not produced a round yet.
func handleForceStop(games *game.Manager, b *bot.Bot, images bot.Images) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := chi.URLParam(r, "channel")

		snap, err := games.ForceStop(channel, "admin")
		switch {
		case err == nil:
			b.AnnounceStop(snap)
			resp := newGameResponse(channel, snap, images)
			writeJSON(w, http.StatusOK, ForceStopResponse{Game: &resp})
		case errors.Is(err, geoguess.ErrNoActiveGame):
			if games.Cancel(channel) {
				writeJSON(w, http.StatusOK, ForceStopResponse{Canceled: true})
				return
			}
			writeError(w, http.StatusNotFound, "no game in this channel")
		default:
			writeError(w, http.StatusInternalServerError, "stopping game failed")
		}
	}
}
