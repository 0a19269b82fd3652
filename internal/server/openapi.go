package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/streetguess/internal/bot"
	"github.com/playperu/streetguess/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]health.Result

type channelPath struct {
	Channel string `path:"channel"`
}

type continentPath struct {
	Channel   string `path:"channel"`
	Continent string `path:"continent" enum:"eu,as,af,am"`
}

type historyQuery struct {
	Channel string `path:"channel"`
	Limit   int    `query:"limit" minimum:"1" maximum:"100" default:"20"`
}

type messageRequest struct {
	channelPath
	bot.Message
}

type reactionRequest struct {
	channelPath
	bot.Reaction
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StreetGuess API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Chat transport and read views for the Street View country guessing bot.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/countries
	getCountries, _ := r.NewOperationContext(http.MethodGet, "/api/countries")
	getCountries.SetSummary("List countries")
	getCountries.SetDescription("Returns the playable countries and the continent groupings.")
	getCountries.AddRespStructure(CountriesResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCountries)

	// POST /api/channels/{channel}/messages
	postMessage, _ := r.NewOperationContext(http.MethodPost, "/api/channels/{channel}/messages")
	postMessage.SetSummary("Send chat message")
	postMessage.SetDescription("Delivers a chat message to the bot. Replies arrive on the event stream.")
	postMessage.AddReqStructure(messageRequest{})
	postMessage.AddRespStructure(AcceptedResponse{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postMessage)

	// POST /api/channels/{channel}/reactions
	postReaction, _ := r.NewOperationContext(http.MethodPost, "/api/channels/{channel}/reactions")
	postReaction.SetSummary("Send reaction")
	postReaction.SetDescription("Delivers a reaction added to a bot message, used to turn list pages.")
	postReaction.AddReqStructure(reactionRequest{})
	postReaction.AddRespStructure(AcceptedResponse{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postReaction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postReaction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReaction)

	// GET /api/channels/{channel}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/channels/{channel}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of the bot's outbound messages, edits and reactions.")
	getEvents.AddReqStructure(channelPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/channels/{channel}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/channels/{channel}/ws")
	getWS.SetSummary("WebSocket chat")
	getWS.SetDescription("Upgrades to a WebSocket. Send ChatFrame JSON; bot events are written back as JSON text frames.")
	getWS.AddReqStructure(channelPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/channels/{channel}/game
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/channels/{channel}/game")
	getGame.SetSummary("Get round")
	getGame.SetDescription("Returns the channel's current round, or the last finished one. The answer is hidden while the round runs.")
	getGame.AddReqStructure(channelPath{})
	getGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getGame)

	// GET /api/channels/{channel}/maps/{continent}
	getMap, _ := r.NewOperationContext(http.MethodGet, "/api/channels/{channel}/maps/{continent}")
	getMap.SetSummary("Continent progress")
	getMap.SetDescription("Returns which countries of a continent were guessed incorrectly.")
	getMap.AddReqStructure(continentPath{})
	getMap.AddRespStructure(bot.ContinentStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getMap.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMap)

	// GET /api/channels/{channel}/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/channels/{channel}/history")
	getHistory.SetSummary("Round history")
	getHistory.SetDescription("Returns the channel's finished rounds, newest first, with totals.")
	getHistory.AddReqStructure(historyQuery{})
	getHistory.AddRespStructure(HistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getHistory)

	// DELETE /api/admin/channels/{channel}/game
	forceStop, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/channels/{channel}/game")
	forceStop.SetSummary("Force stop round")
	forceStop.SetDescription("Stops the channel's round without the minimum age check, or abandons a pending search. Requires the admin bearer token.")
	forceStop.AddReqStructure(channelPath{})
	forceStop.AddRespStructure(ForceStopResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	forceStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	forceStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	forceStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(forceStop)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
