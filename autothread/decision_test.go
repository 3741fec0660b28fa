package autothread

import (
	"strings"
	"testing"
	"unicode/utf8"

	"intro-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledConfig(channels ...string) models.GuildConfig {
	cfg := models.DefaultGuildConfig("g1")
	cfg.EnabledChannels = channels
	return cfg
}

func TestShouldCreateThread(t *testing.T) {
	base := Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Content: "hello"}

	tests := []struct {
		name string
		msg  func(Message) Message
		cfg  models.GuildConfig
		want bool
	}{
		{"enabled channel", func(m Message) Message { return m }, enabledConfig("c1"), true},
		{"channel not enabled", func(m Message) Message { return m }, enabledConfig("c2"), false},
		{"inside thread", func(m Message) Message { m.InThread = true; return m }, enabledConfig("c1"), false},
		{"bot excluded", func(m Message) Message { m.AuthorBot = true; return m }, enabledConfig("c1"), false},
		{"system message", func(m Message) Message { m.System = true; return m }, enabledConfig("c1"), false},
		{
			"bot included",
			func(m Message) Message { m.AuthorBot = true; return m },
			func() models.GuildConfig { c := enabledConfig("c1"); c.IncludeBots = true; return c }(),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCreateThread(tt.msg(base), tt.cfg))
		})
	}
}

func TestShouldCreateThreadNeverInsideThread(t *testing.T) {
	cfg := enabledConfig("c1")
	cfg.IncludeBots = true
	for _, bot := range []bool{true, false} {
		for _, system := range []bool{true, false} {
			m := Message{ChannelID: "c1", InThread: true, AuthorBot: bot, System: system}
			assert.False(t, ShouldCreateThread(m, cfg))
		}
	}
}

func TestGenerateTitleWithoutTemplate(t *testing.T) {
	assert.Equal(t, DefaultTitle, GenerateTitle(Message{}, ""))
	assert.Equal(t, DefaultTitle, GenerateTitle(Message{Content: "   \n "}, ""))
	assert.Equal(t, "hello world", GenerateTitle(Message{Content: "  hello world  "}, ""))

	long := strings.Repeat("abcdefghij", 10)
	assert.Equal(t, long[:50], GenerateTitle(Message{Content: long}, ""))

	// multi-byte runes are cut by character, not byte
	emoji := strings.Repeat("🧵", 60)
	title := GenerateTitle(Message{Content: emoji}, "")
	assert.Equal(t, 50, utf8.RuneCountInString(title))
}

func TestGenerateTitleWithTemplate(t *testing.T) {
	m := Message{
		Content:           "Building a tiny compiler in Go",
		AuthorUsername:    "sam",
		AuthorDisplayName: "Sam",
		AuthorTag:         "sam#1234",
		ChannelName:       "projects",
	}

	assert.Equal(t, "Sam in projects: Building a tiny compiler in Go",
		GenerateTitle(m, "{displayName} in {channel}: {content50}"))
	assert.Equal(t, "sam / sam#1234", GenerateTitle(m, "{username} / {tag}"))
	assert.Equal(t, "keep {unknown}", GenerateTitle(m, "keep {unknown}"))
	assert.Equal(t, DefaultTitle, GenerateTitle(Message{}, "{content50}"))
}

func TestGenerateTitleLengthBound(t *testing.T) {
	m := Message{
		Content:           strings.Repeat("x", 500),
		AuthorUsername:    strings.Repeat("u", 80),
		AuthorDisplayName: strings.Repeat("d", 80),
		ChannelName:       strings.Repeat("c", 80),
	}
	templates := []string{
		"",
		"{content100}",
		"{content100}{content100}",
		"{username} {displayName} {channel} {content50}",
		strings.Repeat("literal ", 40),
	}
	for _, tmpl := range templates {
		title := GenerateTitle(m, tmpl)
		require.LessOrEqual(t, utf8.RuneCountInString(title), MaxTitleLength, "template %q", tmpl)
	}
}
