package bot

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/geoguess"
)

// Country states shown on a continent view.
const (
	StatusIncorrect  = "Incorrect Guess"
	StatusNotGuessed = "Not Guessed"
)

type CountryStatus struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Flag   string `json:"flag"`
	Status string `json:"status"`
}

// ContinentStatus is the data behind a continent progress view.
type ContinentStatus struct {
	Command    string          `json:"command"`
	Title      string          `json:"title"`
	InProgress bool            `json:"inProgress"`
	Countries  []CountryStatus `json:"countries"`
	Total      int             `json:"total"`
	NotGuessed int             `json:"notGuessed"`
	Footer     string          `json:"footer"`
}

// BuildContinentStatus marks every country of continent that appears in
// incorrect as an incorrect guess.
func BuildContinentStatus(table *countries.Table, continent countries.Continent, incorrect []string, inProgress bool) ContinentStatus {
	wrong := lo.Associate(incorrect, func(code string) (string, struct{}) {
		return code, struct{}{}
	})

	list := lo.Map(continent.Codes, func(code string, _ int) CountryStatus {
		status := StatusNotGuessed
		if _, ok := wrong[code]; ok {
			status = StatusIncorrect
		}
		return CountryStatus{
			Code:   code,
			Name:   table.Name(code),
			Flag:   geoguess.FlagEmoji(code),
			Status: status,
		}
	})

	notGuessed := lo.CountBy(list, func(c CountryStatus) bool { return c.Status == StatusNotGuessed })

	gameStatus := "No active game"
	if inProgress {
		gameStatus = "Game in progress"
	}

	return ContinentStatus{
		Command:    continent.Command,
		Title:      continent.Title,
		InProgress: inProgress,
		Countries:  list,
		Total:      len(list),
		NotGuessed: notGuessed,
		Footer: fmt.Sprintf("Status: %s - %d/%d countries in %s not guessed",
			gameStatus, notGuessed, len(list), continent.Title),
	}
}
