package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/streetguess/internal/bot"
)

// wsMaxLifetime bounds how long one connection stays open.
const wsMaxLifetime = 10 * time.Minute

// ChatFrame is one inbound websocket frame. Exactly one of Message and
// Reaction is set, matching Kind.
type ChatFrame struct {
	Kind     string        `json:"kind" enum:"message,reaction"`
	Message  *bot.Message  `json:"message,omitempty"`
	Reaction *bot.Reaction `json:"reaction,omitempty"`
}

// handleWS is a full-duplex chat transport: inbound frames become bot
// messages and reactions, and every event published on the channel is
// written back as a text frame.
func handleWS(logger *slog.Logger, b *bot.Bot, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := chi.URLParam(r, "channel")

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), wsMaxLifetime)
		defer cancel()

		events := broker.Subscribe(channel)
		defer broker.Unsubscribe(channel, events)

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case data := <-events:
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
				}
			}
		}()

		for {
			var f ChatFrame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				var closeErr websocket.CloseError
				if !errors.As(err, &closeErr) {
					logger.Debug("websocket read ended", "channel", channel, "error", err)
				}
				return
			}

			switch {
			case f.Kind == "message" && f.Message != nil:
				m := *f.Message
				m.Channel = channel
				b.HandleMessage(m)
			case f.Kind == "reaction" && f.Reaction != nil:
				rc := *f.Reaction
				rc.Channel = channel
				b.HandleReaction(rc)
			default:
				conn.Close(websocket.StatusUnsupportedData, "unknown frame")
				return
			}
		}
	}
}
