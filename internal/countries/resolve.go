package countries

import (
	"strings"

	"github.com/playperu/streetguess/internal/geoguess"
)

// ResolutionKind says how a piece of free text was matched to a country.
type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	ResolvedCode
	ResolvedName
)

// Resolution is the result of interpreting a guess. Code is set only when
// Kind is not Unresolved.
type Resolution struct {
	Kind ResolutionKind
	Code string
}

func (r Resolution) Resolved() bool { return r.Kind != Unresolved }

// Resolve interprets text as a guess. Any two letter alphabetic token is
// taken as a code, even one the table does not know; otherwise a known
// display name (case-insensitive, surrounding space ignored) resolves to
// its code. Everything else is Unresolved.
func (t *Table) Resolve(text string) Resolution {
	s := strings.ToLower(strings.TrimSpace(text))
	if geoguess.IsCountryCode(s) {
		return Resolution{Kind: ResolvedCode, Code: s}
	}
	if code, ok := t.byName[s]; ok {
		return Resolution{Kind: ResolvedName, Code: code}
	}
	return Resolution{Kind: Unresolved}
}
