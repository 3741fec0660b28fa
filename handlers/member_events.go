package handlers

import (
	"errors"
	"time"

	"intro-bot/onboarding"

	"github.com/bwmarrin/discordgo"
)

// MemberAdd starts onboarding for a member who just joined a configured guild.
func (h *Handler) MemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	h.logger.Info("member joined", "user", m.User.Username, "user_id", m.User.ID, "guild_id", m.GuildID)

	if _, ok := h.bot.Flow.Guild(m.GuildID); ok {
		if err := h.bot.Submissions.IncrementJoins(m.GuildID, time.Now()); err != nil {
			h.logger.Warn("failed to record join", "guild_id", m.GuildID, "error", err)
		}
	}

	err := h.bot.Flow.Start(m.GuildID, m.User.ID)
	switch {
	case err == nil:
	case errors.Is(err, onboarding.ErrGuildNotConfigured):
		h.logger.Debug("guild has no onboarding config, skipping", "guild_id", m.GuildID)
	default:
		h.logger.Warn("failed to start onboarding", "user_id", m.User.ID, "guild_id", m.GuildID, "error", err)
	}
}

// MemberRemove counts members leaving a configured guild.
func (h *Handler) MemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}
	if _, ok := h.bot.Flow.Guild(m.GuildID); !ok {
		return
	}
	h.logger.Info("member left", "user", m.User.Username, "user_id", m.User.ID, "guild_id", m.GuildID)
	if err := h.bot.Submissions.IncrementLeaves(m.GuildID, time.Now()); err != nil {
		h.logger.Warn("failed to record leave", "guild_id", m.GuildID, "error", err)
	}
}
