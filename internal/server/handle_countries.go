package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/streetguess/internal/bot"
	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/geoguess"
)

func handleContinentMap(b *bot.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := b.ContinentStatus(chi.URLParam(r, "channel"), chi.URLParam(r, "continent"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown continent")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type CountryItem struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Flag      string `json:"flag"`
	HasBounds bool   `json:"hasBounds"`
}

type CountriesResponse struct {
	Countries  []CountryItem         `json:"countries"`
	Continents []countries.Continent `json:"continents"`
}

func handleCountries(table *countries.Table) http.HandlerFunc {
	entries := table.Entries()
	resp := CountriesResponse{
		Countries:  make([]CountryItem, 0, len(entries)),
		Continents: make([]countries.Continent, 0, len(countries.ContinentCommands())),
	}
	for _, e := range entries {
		resp.Countries = append(resp.Countries, CountryItem{
			Code:      e.Code,
			Name:      e.Name,
			Flag:      geoguess.FlagEmoji(e.Code),
			HasBounds: table.HasBounds(e.Code),
		})
	}
	for _, cmd := range countries.ContinentCommands() {
		c, _ := table.Continent(cmd)
		resp.Continents = append(resp.Continents, c)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
