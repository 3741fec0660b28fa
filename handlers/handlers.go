package handlers

import (
	"log/slog"
	"runtime/debug"

	"intro-bot/bot"

	"github.com/bwmarrin/discordgo"
)

// Handler routes gateway events to the bot's components.
type Handler struct {
	bot    *bot.Bot
	logger *slog.Logger
}

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	h := &Handler{bot: b, logger: b.Logger.With("module", "handlers")}

	b.Session.AddHandler(safe(h.logger, "ready", h.Ready))
	b.Session.AddHandler(safe(h.logger, "disconnect", h.Disconnect))
	b.Session.AddHandler(safe(h.logger, "interaction_create", h.InteractionCreate))
	b.Session.AddHandler(safe(h.logger, "message_create", h.MessageCreate))
	b.Session.AddHandler(safe(h.logger, "message_update", h.MessageUpdate))
	b.Session.AddHandler(safe(h.logger, "message_delete", h.MessageDelete))
	b.Session.AddHandler(safe(h.logger, "thread_update", h.ThreadUpdate))
	b.Session.AddHandler(safe(h.logger, "thread_delete", h.ThreadDelete))
	b.Session.AddHandler(safe(h.logger, "guild_member_add", h.MemberAdd))
	b.Session.AddHandler(safe(h.logger, "guild_member_remove", h.MemberRemove))
}

// safe wraps an event handler so a panic is logged instead of killing the
// gateway goroutine.
func safe[T any](logger *slog.Logger, event string, fn func(*discordgo.Session, T)) func(*discordgo.Session, T) {
	return func(s *discordgo.Session, e T) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("recovered from panic in event handler", "event", event, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn(s, e)
	}
}

// Ready is called once the gateway session is established.
func (h *Handler) Ready(s *discordgo.Session, r *discordgo.Ready) {
	h.bot.Engine.SetBotUserID(r.User.ID)
	h.bot.SetReady(true)
	h.logger.Info("logged in", "user", r.User.Username, "guilds", len(r.Guilds))
}

// Disconnect marks the bot unhealthy until the next Ready.
func (h *Handler) Disconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	h.bot.SetReady(false)
	h.logger.Warn("gateway disconnected")
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}

// interactionUser returns the invoking user in both guild and DM contexts.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
