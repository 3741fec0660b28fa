// Package autothread decides when a message gets a discussion thread and
// drives thread creation and renaming through the rate-limited queue.
package autothread

import (
	"strings"

	"intro-bot/models"
)

const (
	// MaxTitleLength is the platform limit on thread names.
	MaxTitleLength = 100
	// DefaultTitle is used when a message has no usable text.
	DefaultTitle = "New thread"

	untemplatedTitleLength = 50
)

// Message is the platform-neutral view of a chat message the engine decides on.
type Message struct {
	ID                string
	GuildID           string
	ChannelID         string
	ChannelName       string
	Content           string
	AuthorID          string
	AuthorUsername    string
	AuthorDisplayName string
	AuthorTag         string
	AuthorBot         bool
	System            bool
	InThread          bool
}

// ShouldCreateThread reports whether m qualifies for a new thread under cfg.
func ShouldCreateThread(m Message, cfg models.GuildConfig) bool {
	switch {
	case m.InThread:
		return false
	case !cfg.ChannelEnabled(m.ChannelID):
		return false
	case m.AuthorBot && !cfg.IncludeBots:
		return false
	case m.System:
		return false
	}
	return true
}

// GenerateTitle renders the thread title for m. Without a template the title
// is the start of the message text. The result never exceeds MaxTitleLength.
func GenerateTitle(m Message, template string) string {
	var title string
	if template == "" {
		title = strings.TrimSpace(firstRunes(strings.TrimSpace(m.Content), untemplatedTitleLength))
	} else {
		title = strings.TrimSpace(RenderTemplate(template, m))
	}
	if title == "" {
		title = DefaultTitle
	}
	return firstRunes(title, MaxTitleLength)
}
