package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/streetguess/internal/handler/health"
	"github.com/playperu/streetguess/internal/metrics"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StreetGuess API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Handle("/metrics", metrics.Handler())

	r.Get("/api/countries", handleCountries(deps.Table))

	// Chat ingress and the views built on the same channel state.
	r.Route("/api/channels/{channel}", func(r chi.Router) {
		r.Use(chatAuthMiddleware(deps.ChatToken))
		r.Post("/messages", handleMessage(deps.Bot))
		r.Post("/reactions", handleReaction(deps.Bot))
		r.Get("/events", handleEvents(deps.Broker))
		r.Get("/ws", handleWS(logger, deps.Bot, deps.Broker))
		r.Get("/game", handleGame(deps.Games, deps.Images))
		r.Get("/maps/{continent}", handleContinentMap(deps.Bot))
		r.Get("/history", handleHistory(logger, deps.History))
	})

	r.Route("/api/admin/channels/{channel}", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.AdminTokenHash))
		r.Delete("/game", handleForceStop(deps.Games, deps.Bot, deps.Images))
	})
}
