package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

var templateSuggestions = map[string][]string{
	"titletemplate": {
		"{displayName}: {content50}",
		"{content100}",
		"{username} in #{channel}",
		templateOff,
	},
	"replymessage": {
		"Thanks for sharing, {displayName}! Replies go here.",
		"Discussion thread for {displayName}'s post",
		templateOff,
	},
}

// HandleAutocomplete handles all autocomplete interactions.
func (h *Handler) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "auto-thread" {
		return
	}
	path, opts := subcommand(data.Options)
	setting := strings.TrimPrefix(path, "set ")
	focused := findOption(opts, "value")
	if focused == nil || !focused.Focused {
		return
	}
	typed, _ := focused.Value.(string)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: templateChoices(setting, typed),
		},
	})
	if err != nil {
		h.logger.Warn("failed to respond with autocomplete choices", "error", err)
	}
}

// templateChoices offers what the user typed followed by preset templates that
// contain it. Choice values are limited to 25 entries of 100 characters.
func templateChoices(setting, typed string) []*discordgo.ApplicationCommandOptionChoice {
	var choices []*discordgo.ApplicationCommandOptionChoice
	add := func(v string) {
		if len(choices) < 25 && utf8.RuneCountInString(v) <= 100 {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
		}
	}
	typed = strings.TrimSpace(typed)
	if typed != "" {
		add(typed)
	}
	for _, t := range templateSuggestions[setting] {
		if t != typed && strings.Contains(strings.ToLower(t), strings.ToLower(typed)) {
			add(t)
		}
	}
	return choices
}
