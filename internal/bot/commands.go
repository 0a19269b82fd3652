package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/playperu/streetguess/internal/countries"
	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/geoguess"
)

const (
	msgNotConfigured = "The Google Maps API key is not configured for the bot. Cannot start the game."
	msgInProgress    = "A game is already in progress in this channel! Use `<country_code>` or the country name to guess."
	msgStarting      = "🌍 Starting a new game... Choosing a country and finding a location, this might take a moment..."
	msgNoGameHint    = "No active game. Start one with `!g`."
	msgNoGameStop    = "No game is currently active in this channel to stop."
	msgNoPermission  = "You don't have permission to stop the game."
	msgHintFailed    = "Couldn't find an extra location right now. Try `!hint` again."
	msgStartFailed   = "Something went wrong while starting the game. Please try again later."
	msgShuttingDown  = "The bot is shutting down. Please try again later."
)

func (b *Bot) start(m Message) {
	if !b.games.Enabled() {
		b.reply(m.Channel, msgNotConfigured, 0)
		return
	}

	now := b.now()
	slot, wait := b.startCooldown.take(m.Channel, now)
	if wait > 0 {
		b.reply(m.Channel, fmt.Sprintf("This command is on cooldown. Try again in %ds.", wholeSeconds(wait)), 5)
		return
	}
	if _, busy := b.games.Current(m.Channel); busy {
		release(slot, now)
		b.reply(m.Channel, msgInProgress, 0)
		return
	}

	region := b.table.Random()
	msgID := b.reply(m.Channel, msgStarting, 0)

	started := b.goSearch(func(ctx context.Context) {
		snap, err := b.games.Start(ctx, m.Channel, region)
		switch {
		case err == nil:
		case errors.Is(err, geoguess.ErrGameInProgress):
			b.edit(m.Channel, msgID, msgInProgress)
			return
		case errors.Is(err, geoguess.ErrSearchExhausted):
			b.edit(m.Channel, msgID, fmt.Sprintf(
				"Could not find a suitable Street View location in %s after several attempts. Please try again later.", region.Name))
			return
		case errors.Is(err, geoguess.ErrStaleSearch), errors.Is(err, context.Canceled):
			b.logger.Info("start abandoned", "channel", m.Channel, "error", err)
			return
		default:
			b.logger.Error("starting round failed", "channel", m.Channel, "error", err)
			b.edit(m.Channel, msgID, msgStartFailed)
			return
		}

		embeds := startEmbeds(b.images.Views(snap.Panorama.ID))
		b.pub.Publish(m.Channel, Event{
			Type:      EventEdit,
			Channel:   m.Channel,
			MessageID: msgID,
			Embeds:    embeds[:1],
		})
		for _, e := range embeds[1:] {
			b.pub.Publish(m.Channel, Event{
				Type:      EventMessage,
				Channel:   m.Channel,
				MessageID: uuid.NewString(),
				Embeds:    []*discordgo.MessageEmbed{e},
			})
		}
	})
	if !started {
		release(slot, now)
		b.edit(m.Channel, msgID, msgShuttingDown)
	}
}

func (b *Bot) hint(m Message) {
	now := b.now()
	slot, wait := b.hintCooldown.take(m.Channel, now)
	if wait > 0 {
		b.reply(m.Channel, fmt.Sprintf("Hint is on cooldown. Try again in %ds.", wholeSeconds(wait)), 5)
		return
	}
	if !b.games.Active(m.Channel) {
		release(slot, now)
		b.reply(m.Channel, msgNoGameHint, 10)
		return
	}

	started := b.goSearch(func(ctx context.Context) {
		ref, err := b.games.Hint(ctx, m.Channel)
		switch {
		case err == nil:
		case errors.Is(err, geoguess.ErrStaleSearch),
			errors.Is(err, geoguess.ErrNoActiveGame),
			errors.Is(err, context.Canceled):
			return
		default:
			b.logger.Warn("hint search failed", "channel", m.Channel, "error", err)
			b.reply(m.Channel, msgHintFailed, 0)
			return
		}

		for _, e := range hintEmbeds(b.images.Views(ref.ID)) {
			b.pub.Publish(m.Channel, Event{
				Type:      EventMessage,
				Channel:   m.Channel,
				MessageID: uuid.NewString(),
				Embeds:    []*discordgo.MessageEmbed{e},
			})
		}
	})
	if !started {
		release(slot, now)
		b.reply(m.Channel, msgShuttingDown, 10)
	}
}

func (b *Bot) stop(m Message) {
	if !m.CanManageMessages {
		b.reply(m.Channel, msgNoPermission, 10)
		return
	}

	snap, err := b.games.Stop(m.Channel, m.AuthorID)
	switch {
	case err == nil:
	case errors.Is(err, geoguess.ErrStopTooEarly):
		b.reply(m.Channel, fmt.Sprintf(
			"The game cannot be stopped until at least %s has passed since it started.", humanDuration(b.stopMinElapsed)), 10)
		return
	case errors.Is(err, geoguess.ErrNoActiveGame):
		b.reply(m.Channel, msgNoGameStop, 0)
		return
	default:
		b.logger.Error("stopping round failed", "channel", m.Channel, "error", err)
		b.reply(m.Channel, "An error occurred while trying to stop the game.", 10)
		return
	}

	b.AnnounceStop(snap)
}

// AnnounceStop publishes the reveal of a stopped round and records it.
func (b *Bot) AnnounceStop(snap game.Snapshot) {
	b.pub.Publish(snap.Channel, Event{
		Type:      EventMessage,
		Channel:   snap.Channel,
		MessageID: uuid.NewString(),
		Embeds:    []*discordgo.MessageEmbed{stopEmbed(snap, b.images.PreviewURL(snap.Panorama.ID))},
	})
	b.record(snap)
}

func (b *Bot) guess(m Message, text string) {
	res, err := b.games.Guess(m.Channel, m.AuthorID, text)
	if err != nil || res.Outcome == game.GuessIgnored {
		return
	}

	if flag := geoguess.FlagEmoji(res.Code); flag != "" {
		b.react(m.Channel, m.ID, flag)
	}

	if res.Outcome == game.GuessIncorrect {
		b.react(m.Channel, m.ID, "❌")
		return
	}

	b.react(m.Channel, m.ID, "✅")
	b.pub.Publish(m.Channel, Event{
		Type:      EventMessage,
		Channel:   m.Channel,
		MessageID: uuid.NewString(),
		Embeds:    []*discordgo.MessageEmbed{winEmbed(res.Session, b.images.PreviewURL(res.Session.Panorama.ID))},
	})
	b.record(res.Session)
}

func (b *Bot) list(m Message) {
	pages := countries.Paginate(b.table.Lines(), countries.LinesPerPage, countries.PageBudget)
	if len(pages) == 0 {
		b.reply(m.Channel, "The countries list is empty.", 0)
		return
	}

	p := &pager{pages: pages}
	id := b.reply(m.Channel, p.render(), 0)
	if len(pages) > 1 {
		b.pagers.add(id, p)
		b.react(m.Channel, id, emojiPrev)
		b.react(m.Channel, id, emojiNext)
	}
}

// ContinentStatus reports guess progress of channel for a continent
// command such as "eu".
func (b *Bot) ContinentStatus(channel, command string) (ContinentStatus, bool) {
	c, ok := b.table.Continent(command)
	if !ok {
		return ContinentStatus{}, false
	}
	incorrect, inProgress := b.games.Progress(channel)
	return BuildContinentStatus(b.table, c, incorrect, inProgress), true
}

func (b *Bot) continent(m Message, command string) {
	st, ok := b.ContinentStatus(m.Channel, command)
	if !ok {
		return
	}
	if st.Total == 0 {
		b.reply(m.Channel, fmt.Sprintf("No country data loaded for %s. Cannot generate map.", st.Title), 0)
		return
	}
	b.pub.Publish(m.Channel, Event{
		Type:      EventMessage,
		Channel:   m.Channel,
		MessageID: uuid.NewString(),
		Embeds:    []*discordgo.MessageEmbed{continentEmbed(st)},
	})
}
