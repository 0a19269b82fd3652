package bot

import "github.com/bwmarrin/discordgo"

// Message is an inbound chat message.
type Message struct {
	ID                string `json:"id"`
	Channel           string `json:"channel"`
	AuthorID          string `json:"authorId"`
	AuthorName        string `json:"authorName,omitempty"`
	Text              string `json:"text"`
	FromBot           bool   `json:"fromBot,omitempty"`
	CanManageMessages bool   `json:"canManageMessages,omitempty"`
}

// Reaction is an inbound reaction added to a message.
type Reaction struct {
	Channel   string `json:"channel"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
	FromBot   bool   `json:"fromBot,omitempty"`
}

type EventType string

const (
	// EventMessage posts a new message with the given MessageID.
	EventMessage EventType = "message"
	// EventEdit replaces the content and embeds of MessageID.
	EventEdit EventType = "edit"
	// EventReact adds Emoji to MessageID.
	EventReact EventType = "react"
	// EventUnreact removes UserID's Emoji from MessageID.
	EventUnreact EventType = "unreact"
)

// Event is an outbound action for the chat transport to carry out.
type Event struct {
	Type      EventType                 `json:"type"`
	Channel   string                    `json:"channel"`
	MessageID string                    `json:"messageId"`
	Content   string                    `json:"content,omitempty"`
	Embeds    []*discordgo.MessageEmbed `json:"embeds,omitempty"`
	Emoji     string                    `json:"emoji,omitempty"`
	UserID    string                    `json:"userId,omitempty"`
	// DeleteAfter asks the transport to remove the message after that many
	// seconds.
	DeleteAfter int `json:"deleteAfter,omitempty"`
}

// Publisher delivers outbound events to whoever is listening on a channel.
type Publisher interface {
	Publish(channel string, ev Event)
}
