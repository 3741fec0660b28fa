package handlers

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"intro-bot/onboarding"
	"intro-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// HandlePing reports gateway latency, uptime and memory use.
func (h *Handler) HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	embed := pingEmbed(s.HeartbeatLatency(), time.Since(h.bot.StartedAt), mem.HeapAlloc, runtime.NumGoroutine())
	if err := respondEmbed(s, i, embed); err != nil {
		h.logger.Warn("failed to respond to ping", "error", err)
	}
}

func pingEmbed(latency, uptime time.Duration, heapAlloc uint64, goroutines int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: utils.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gateway latency", Value: latency.Round(time.Millisecond).String(), Inline: true},
			{Name: "Uptime", Value: uptime.Round(time.Second).String(), Inline: true},
			{Name: "Heap", Value: formatBytes(heapAlloc), Inline: true},
			{Name: "Goroutines", Value: fmt.Sprint(goroutines), Inline: true},
		},
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// HandleClearDM deletes the bot's recent messages in the invoker's DMs.
func (h *Handler) HandleClearDM(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	if err := deferEphemeral(s, i); err != nil {
		h.logger.Warn("failed to defer clear-dm response", "error", err)
		return
	}

	deleted, err := h.bot.Platform.ClearBotDMs(user.ID)
	content := fmt.Sprintf("🧹 Deleted %d message(s) from our DMs.", deleted)
	if err != nil {
		h.logger.Warn("failed to clear DMs", "user_id", user.ID, "deleted", deleted, "error", err)
		content = fmt.Sprintf("Deleted %d message(s), then hit an error. Please try again later.", deleted)
	}
	if err := editResponse(s, i, content); err != nil {
		h.logger.Warn("failed to edit clear-dm response", "error", err)
	}
}

// HandlePingIntro starts the onboarding DM flow for up to three members.
func (h *Handler) HandlePingIntro(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if _, ok := h.bot.Flow.Guild(i.GuildID); !ok {
		if err := respondEphemeral(s, i, "Onboarding isn't configured for this server."); err != nil {
			h.logger.Warn("failed to respond to ping-intro", "error", err)
		}
		return
	}
	if err := deferEphemeral(s, i); err != nil {
		h.logger.Warn("failed to defer ping-intro response", "error", err)
		return
	}

	var lines []string
	for _, userID := range optionUserIDs(i.ApplicationCommandData().Options) {
		err := h.bot.Flow.Start(i.GuildID, userID)
		switch {
		case err == nil:
			lines = append(lines, fmt.Sprintf("✅ <@%s>: prompt sent", userID))
		case errors.Is(err, onboarding.ErrGuildNotConfigured):
			lines = append(lines, fmt.Sprintf("❌ <@%s>: onboarding isn't configured", userID))
		default:
			h.logger.Warn("failed to start onboarding", "guild_id", i.GuildID, "user_id", userID, "error", err)
			lines = append(lines, fmt.Sprintf("❌ <@%s>: couldn't send a DM (are DMs closed?)", userID))
		}
	}
	if err := editResponse(s, i, strings.Join(lines, "\n")); err != nil {
		h.logger.Warn("failed to edit ping-intro response", "error", err)
	}
}

// optionUserIDs returns the distinct user ids passed as user options, in order.
func optionUserIDs(options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, opt := range options {
		if opt.Type != discordgo.ApplicationCommandOptionUser {
			continue
		}
		id, ok := opt.Value.(string)
		if !ok || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
