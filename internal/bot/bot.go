// Package bot turns chat messages and reactions into game operations and
// publishes the replies as platform-neutral events.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/streetview"
)

// Images builds the image URLs shown for a panorama.
type Images interface {
	Views(panoID string) []streetview.View
	PreviewURL(panoID string) string
}

// Recorder persists finished rounds.
type Recorder interface {
	Record(ctx context.Context, s game.Snapshot) error
}

type Options struct {
	HintCooldown  time.Duration
	StartCooldown time.Duration
	// StopMinElapsed is only used to word the early stop reply.
	StopMinElapsed time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

type Bot struct {
	games    *game.Manager
	table    *countries.Table
	images   Images
	pub      Publisher
	recorder Recorder
	logger   *slog.Logger

	hintCooldown   *cooldowns
	startCooldown  *cooldowns
	stopMinElapsed time.Duration
	now            func() time.Time
	pagers         *pagers

	// ctx outlives individual requests; searches run on it.
	ctx context.Context
	wg  sync.WaitGroup

	// mu orders wg.Add against Close.
	mu     sync.Mutex
	closed bool
}

// New wires a bot. ctx bounds background searches; recorder may be nil.
func New(ctx context.Context, games *game.Manager, table *countries.Table, images Images, pub Publisher, recorder Recorder, logger *slog.Logger, opts Options) *Bot {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StopMinElapsed <= 0 {
		opts.StopMinElapsed = game.DefaultStopMinElapsed
	}
	return &Bot{
		games:          games,
		table:          table,
		images:         images,
		pub:            pub,
		recorder:       recorder,
		logger:         logger,
		hintCooldown:   newCooldowns(opts.HintCooldown),
		startCooldown:  newCooldowns(opts.StartCooldown),
		stopMinElapsed: opts.StopMinElapsed,
		now:            opts.Now,
		pagers:         newPagers(),
		ctx:            ctx,
	}
}

// Wait blocks until every background search started so far has finished.
func (b *Bot) Wait() { b.wg.Wait() }

// Close stops the bot from starting background searches and waits for
// the running ones. Messages handled afterwards get a shutdown reply.
func (b *Bot) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

// goSearch runs fn in the background unless the bot is closed or its
// context is done, and reports whether it did.
func (b *Bot) goSearch(fn func(ctx context.Context)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.ctx.Err() != nil {
		return false
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
	return true
}

// HandleMessage dispatches one inbound message. Commands start with '!';
// plain text in a channel with an active round is a guess, except the
// word "hint".
func (b *Bot) HandleMessage(m Message) {
	if m.FromBot {
		return
	}
	text := strings.TrimSpace(m.Text)
	lower := strings.ToLower(text)

	if strings.HasPrefix(lower, "!") {
		b.command(m, lower)
		return
	}

	if !b.games.Active(m.Channel) {
		return
	}
	if lower == "hint" {
		b.hint(m)
		return
	}
	b.guess(m, text)
}

func (b *Bot) command(m Message, lower string) {
	if lower == "!list" {
		b.list(m)
		return
	}
	if strings.HasPrefix(lower, "!help") {
		b.reply(m.Channel, helpText, 0)
		return
	}

	name := strings.TrimPrefix(strings.Fields(lower)[0], "!")
	switch name {
	case "g":
		b.start(m)
	case "hint":
		b.hint(m)
	case "stop_g":
		b.stop(m)
	case "eu", "as", "af", "am":
		b.continent(m, name)
	}
}

// HandleReaction turns list pages. The user's reaction is removed so the
// same arrow can be used again.
func (b *Bot) HandleReaction(r Reaction) {
	if r.FromBot {
		return
	}
	content, found, changed := b.pagers.turn(r.MessageID, r.Emoji)
	if !found {
		return
	}
	if changed {
		b.pub.Publish(r.Channel, Event{
			Type:      EventEdit,
			Channel:   r.Channel,
			MessageID: r.MessageID,
			Content:   content,
		})
	}
	b.pub.Publish(r.Channel, Event{
		Type:      EventUnreact,
		Channel:   r.Channel,
		MessageID: r.MessageID,
		Emoji:     r.Emoji,
		UserID:    r.UserID,
	})
}

// reply posts a text message and returns its id.
func (b *Bot) reply(channel, content string, deleteAfter int) string {
	id := uuid.NewString()
	b.pub.Publish(channel, Event{
		Type:        EventMessage,
		Channel:     channel,
		MessageID:   id,
		Content:     content,
		DeleteAfter: deleteAfter,
	})
	return id
}

func (b *Bot) edit(channel, messageID, content string) {
	b.pub.Publish(channel, Event{
		Type:      EventEdit,
		Channel:   channel,
		MessageID: messageID,
		Content:   content,
	})
}

func (b *Bot) react(channel, messageID, emoji string) {
	b.pub.Publish(channel, Event{
		Type:      EventReact,
		Channel:   channel,
		MessageID: messageID,
		Emoji:     emoji,
	})
}

func (b *Bot) record(s game.Snapshot) {
	if b.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(b.ctx), 5*time.Second)
	defer cancel()
	if err := b.recorder.Record(ctx, s); err != nil {
		b.logger.Error("recording round failed", "channel", s.Channel, "session", s.ID, "error", err)
	}
}
