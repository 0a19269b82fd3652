package countries

import "strings"

// Page limits used by the list viewer.
const (
	LinesPerPage = 15
	PageBudget   = 1900
)

// pageHeadroom is kept free on every page for the "Page i/n" header.
const pageHeadroom = 100

// Paginate splits lines into code-block pages holding at most perPage
// lines each and staying under maxChars.
func Paginate(lines []string, perPage, maxChars int) []string {
	var (
		pages []string
		cur   strings.Builder
		count int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			pages = append(pages, "```\n"+s+"\n```")
		}
		cur.Reset()
		count = 0
	}
	for _, l := range lines {
		l += "\n"
		if cur.Len()+len(l)+pageHeadroom > maxChars || count >= perPage {
			flush()
		}
		cur.WriteString(l)
		count++
	}
	flush()
	return pages
}
