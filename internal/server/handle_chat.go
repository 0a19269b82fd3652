package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/playperu/streetguess/internal/bot"
)

type AcceptedResponse struct {
	ID string `json:"id"`
}

// handleMessage feeds one chat message to the bot. Replies are delivered
// through the channel's event stream, not the response.
func handleMessage(b *bot.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m bot.Message
		if err := readJSON(w, r, &m); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(m.Text) == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		if m.AuthorID == "" {
			writeError(w, http.StatusBadRequest, "authorId is required")
			return
		}

		m.Channel = chi.URLParam(r, "channel")
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		b.HandleMessage(m)

		writeJSON(w, http.StatusAccepted, AcceptedResponse{ID: m.ID})
	}
}

func handleReaction(b *bot.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rc bot.Reaction
		if err := readJSON(w, r, &rc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if rc.MessageID == "" || rc.Emoji == "" {
			writeError(w, http.StatusBadRequest, "messageId and emoji are required")
			return
		}

		rc.Channel = chi.URLParam(r, "channel")
		b.HandleReaction(rc)

		writeJSON(w, http.StatusAccepted, AcceptedResponse{ID: rc.MessageID})
	}
}
