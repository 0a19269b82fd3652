package countries

import "strings"

// Continent is one of the groupings players can ask a status view for.
type Continent struct {
	Command string   `json:"command"`
	Title   string   `json:"title"`
	Codes   []string `json:"codes"`
}

// continentKeys maps chat commands to the key used in the continents file
// and the title shown to players.
var continentKeys = []struct{ command, key, title string }{
	{"eu", "Europe", "Europe"},
	{"as", "Asia", "Asia"},
	{"af", "Africa", "Africa"},
	{"am", "America", "The Americas"},
}

// ContinentCommands lists the commands that have a status view.
func ContinentCommands() []string {
	out := make([]string, len(continentKeys))
	for i, c := range continentKeys {
		out[i] = c.command
	}
	return out
}

// Continent returns the grouping for a command such as "eu". The second
// result is false for unknown commands; a known command with no loaded
// data returns an empty code list.
func (t *Table) Continent(command string) (Continent, bool) {
	command = strings.ToLower(command)
	for _, c := range continentKeys {
		if c.command == command {
			return Continent{
				Command: c.command,
				Title:   c.title,
				Codes:   append([]string(nil), t.continents[c.key]...),
			}, true
		}
	}
	return Continent{}, false
}
