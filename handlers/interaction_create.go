package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles slash commands, autocomplete, buttons and modals.
func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.CommandDispatcher(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.HandleAutocomplete(s, i)
	case discordgo.InteractionMessageComponent:
		h.HandleButton(s, i)
	case discordgo.InteractionModalSubmit:
		h.HandleModalSubmit(s, i)
	}
}
