package handlers

import (
	"intro-bot/utils"

	"github.com/bwmarrin/discordgo"
)

var commandPermissions = map[string]utils.Level{
	"ping":        utils.LevelGuest,
	"clear-dm":    utils.LevelGuest,
	"ping-intro":  utils.LevelModerator,
	"auto-thread": utils.LevelManager,
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func (h *Handler) CommandDispatcher(s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if required, ok := commandPermissions[commandName]; ok && !h.bot.Auth.CheckPermission(i, required) {
		if err := respondEphemeral(s, i, "🚫 You don't have permission to use this command."); err != nil {
			h.logger.Warn("failed to respond to interaction", "command", commandName, "error", err)
		}
		return
	}

	switch commandName {
	case "ping":
		h.HandlePing(s, i)
	case "clear-dm":
		h.HandleClearDM(s, i)
	case "ping-intro":
		h.HandlePingIntro(s, i)
	case "auto-thread":
		h.HandleAutoThread(s, i)
	default:
		if err := respondEphemeral(s, i, "🚫 Internal error: unknown command."); err != nil {
			h.logger.Warn("failed to respond to interaction", "command", commandName, "error", err)
		}
	}
}
