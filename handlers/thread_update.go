package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// ThreadUpdate pins titles of threads a human renamed.
func (h *Handler) ThreadUpdate(s *discordgo.Session, t *discordgo.ThreadUpdate) {
	if t.Channel == nil {
		return
	}
	if archived(t.Channel) {
		h.bot.Engine.Forget(t.ID)
		return
	}
	tracked := h.bot.Engine.Tracks(t.ID)
	automatic := h.bot.Engine.IsAutomaticName(t.ID, t.Name)
	if !isManualRename(t.BeforeUpdate, t.Channel, tracked, automatic) {
		return
	}

	cfg, err := h.bot.Store.Get(t.GuildID)
	if err != nil {
		h.logger.Warn("failed to load guild config", "guild_id", t.GuildID, "error", err)
		return
	}
	if !tracked && !cfg.ChannelEnabled(t.ParentID) {
		return
	}
	if cfg.IsManuallyRenamed(t.ID) {
		return
	}
	if err := h.bot.Engine.MarkThreadAsManuallyRenamed(t.GuildID, t.ID); err != nil {
		h.logger.Error("failed to record manual rename", "thread_id", t.ID, "error", err)
		return
	}
	h.logger.Info("thread renamed manually, title updates stopped", "thread_id", t.ID, "name", t.Name)
}

// ThreadDelete drops the engine's remembered name for the thread.
func (h *Handler) ThreadDelete(s *discordgo.Session, t *discordgo.ThreadDelete) {
	if t.Channel == nil {
		return
	}
	h.bot.Engine.Forget(t.ID)
}

func archived(c *discordgo.Channel) bool {
	return c.ThreadMetadata != nil && c.ThreadMetadata.Archived
}

// isManualRename reports whether after carries a name the bot did not set.
// Without a cached previous state only threads the bot named can be judged.
func isManualRename(before, after *discordgo.Channel, tracked, automatic bool) bool {
	if automatic {
		return false
	}
	if before != nil {
		return before.Name != after.Name
	}
	return tracked
}
