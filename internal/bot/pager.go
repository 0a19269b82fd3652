package bot

import (
	"fmt"
	"sync"
)

const (
	emojiPrev = "⬅️"
	emojiNext = "➡️"

	// maxPagers bounds how many list messages stay navigable.
	maxPagers = 256
)

type pager struct {
	pages []string
	index int
}

func (p *pager) render() string {
	return fmt.Sprintf("**Page %d/%d**\n%s", p.index+1, len(p.pages), p.pages[p.index])
}

// pagers tracks paginated messages by message id, forgetting the oldest
// once maxPagers is reached.
type pagers struct {
	mu    sync.Mutex
	byID  map[string]*pager
	order []string
}

func newPagers() *pagers {
	return &pagers{byID: make(map[string]*pager)}
}

func (ps *pagers) add(messageID string, p *pager) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.order) >= maxPagers {
		delete(ps.byID, ps.order[0])
		ps.order = ps.order[1:]
	}
	ps.byID[messageID] = p
	ps.order = append(ps.order, messageID)
}

// turn moves the pager of messageID by one page in the emoji's direction.
// found is false for unknown messages or emojis; changed is false at the
// first or last page.
func (ps *pagers) turn(messageID, emoji string) (content string, found, changed bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.byID[messageID]
	if !ok {
		return "", false, false
	}
	next := p.index
	switch emoji {
	case emojiPrev:
		next = max(0, p.index-1)
	case emojiNext:
		next = min(len(p.pages)-1, p.index+1)
	default:
		return "", false, false
	}
	if next == p.index {
		return "", true, false
	}
	p.index = next
	return p.render(), true, true
}
