package handlers

import (
	"context"
	"errors"
	"time"

	"intro-bot/autothread"

	"github.com/bwmarrin/discordgo"
)

const threadTimeout = 5 * time.Minute

// channel looks a channel up in the state cache before asking the API.
func channel(s *discordgo.Session, channelID string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return s.Channel(channelID)
}

// MessageCreate starts a discussion thread for messages in auto-thread channels.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore DMs and all messages created by the bot itself
	if m.GuildID == "" || m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	ch, err := channel(s, m.ChannelID)
	if err != nil {
		h.logger.Warn("failed to resolve channel", "channel_id", m.ChannelID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), threadTimeout)
	defer cancel()

	thread, err := h.bot.Engine.CreateThreadForMessage(ctx, autothread.FromDiscord(m.Message, ch))
	switch {
	case errors.Is(err, autothread.ErrMissingPermission):
		h.logger.Info("missing thread permission", "guild_id", m.GuildID, "channel_id", m.ChannelID)
	case err != nil:
		h.bot.Reporter.Error("autothread", "create thread", err.Error())
	case thread != nil:
		h.logger.Debug("thread created", "thread_id", thread.ID, "message_id", m.ID)
	}
}

// MessageUpdate keeps auto-generated thread titles in sync with edits.
func (h *Handler) MessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.GuildID == "" || m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	// A thread started from a message shares the message's id.
	thread, err := s.State.Channel(m.ID)
	if err != nil {
		if !h.bot.Engine.Tracks(m.ID) {
			return
		}
		if thread, err = s.Channel(m.ID); err != nil {
			h.logger.Warn("failed to fetch thread for edited message", "message_id", m.ID, "error", err)
			return
		}
	}
	if !thread.IsThread() {
		return
	}

	parent, err := channel(s, m.ChannelID)
	if err != nil {
		h.logger.Warn("failed to resolve channel", "channel_id", m.ChannelID, "error", err)
		return
	}
	future, err := h.bot.Engine.UpdateThreadTitle(autothread.FromDiscord(m.Message, parent), thread)
	if err != nil {
		h.logger.Warn("failed to update thread title", "thread_id", thread.ID, "error", err)
		return
	}
	if future == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), threadTimeout)
	defer cancel()
	if _, err := future.Wait(ctx); err != nil {
		h.logger.Warn("thread rename failed", "thread_id", thread.ID, "error", err)
	}
}

// MessageDelete only records the deletion.
func (h *Handler) MessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	h.logger.Debug("message deleted", "guild_id", m.GuildID, "channel_id", m.ChannelID, "message_id", m.ID)
}
