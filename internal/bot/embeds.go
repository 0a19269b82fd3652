package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/playperu/streetguess/internal/game"
	"github.com/playperu/streetguess/internal/streetview"
)

const (
	colorBlue   = 0x3498DB
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
	colorPurple = 0x9B59B6
)

const helpText = "**Available Commands:**\n\n" +
	"**Commands:**\n" +
	"`!help` - Show this help menu\n" +
	"`!list` - Show the list of all available countries\n" +
	"`!g` - Start a street view guessing game (shows North, East, South, West views)\n" +
	"`!hint` - Get an extra hint for the guessing game (shows a random view), hint\n" +
	"`!stop_g` - Stop the current game.\n" +
	"`!eu` - Displays a map of Europe and beyond showing incorrectly guessed countries\n" +
	"`!as` - Displays a map of Asia and beyond showing incorrectly guessed countries\n" +
	"`!af` - Displays a map of Africa and beyond showing incorrectly guessed countries\n" +
	"`!am` - Displays a map of America and beyond showing incorrectly guessed countries"

// maxFieldValue is Discord's limit for an embed field value.
const maxFieldValue = 1024

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n-len("\n…")], '\n')
	if cut < 0 {
		cut = n - len("\n…")
	}
	return s[:cut] + "\n…"
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

// startEmbeds is the round announcement: the north view with instructions,
// then one embed per remaining direction.
func startEmbeds(views []streetview.View) []*discordgo.MessageEmbed {
	out := []*discordgo.MessageEmbed{{
		Title:       "🌍 Guess the Location! 🌍",
		Description: "I've picked a location from one of the chosen countries. Can you guess which **country**?",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  "How to Play",
			Value: "To make a guess either type `<2-letter_country_code>`  (e.g., `us`, `jp`) or the country name (e.g., `united states`, `japan`).",
		}},
		Image:  &discordgo.MessageEmbedImage{URL: views[0].URL},
		Footer: &discordgo.MessageEmbedFooter{Text: "360° view mode - Look at all 4 directions to help identify the location"},
	}}
	for _, v := range views[1:] {
		out = append(out, &discordgo.MessageEmbed{
			Title: "View facing " + v.Name,
			Color: colorBlue,
			Image: &discordgo.MessageEmbedImage{URL: v.URL},
		})
	}
	return out
}

func hintEmbeds(views []streetview.View) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(views))
	for _, v := range views {
		out = append(out, &discordgo.MessageEmbed{
			Title: "Extra View facing " + v.Name,
			Color: colorPurple,
			Image: &discordgo.MessageEmbedImage{URL: v.URL},
		})
	}
	return out
}

func locationField(panoID string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:  "Location",
		Value: fmt.Sprintf("[View on Google Maps](%s)", streetview.ViewerLink(panoID)),
	}
}

func winEmbed(s game.Snapshot, previewURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎉 Correct Guess! 🎉",
		Description: fmt.Sprintf("%s guessed it right! The country was **%s**.", mention(s.Winner), s.Region.Label()),
		Color:       colorGreen,
		Fields:      []*discordgo.MessageEmbedField{locationField(s.Panorama.ID)},
		Image:       &discordgo.MessageEmbedImage{URL: previewURL},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Game Over!"},
	}
}

func stopEmbed(s game.Snapshot, previewURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Game Stopped",
		Description: fmt.Sprintf("The game has been stopped by %s.", mention(s.StoppedBy)),
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Correct Answer", Value: fmt.Sprintf("The correct country was **%s**", s.Region.Label())},
			locationField(s.Panorama.ID),
		},
		Image: &discordgo.MessageEmbedImage{URL: previewURL},
	}
}

func continentEmbed(st ContinentStatus) *discordgo.MessageEmbed {
	var guessed []string
	for _, c := range st.Countries {
		if c.Status == StatusIncorrect {
			guessed = append(guessed, fmt.Sprintf("%s %s", c.Flag, c.Name))
		}
	}
	value := "None yet"
	if len(guessed) > 0 {
		value = truncate(strings.Join(guessed, "\n"), maxFieldValue)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🗺️ %s Map", st.Title),
		Description: "🔴 Incorrect guesses • ⚫ Not yet guessed\n*Map of your guessing progress*",
		Color:       colorBlue,
		Fields:      []*discordgo.MessageEmbedField{{Name: "🔴 Incorrect guesses", Value: value}},
		Footer:      &discordgo.MessageEmbedFooter{Text: "🎯 " + st.Footer},
	}
}
