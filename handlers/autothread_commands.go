package handlers

import (
	"errors"
	"fmt"
	"strings"

	"intro-bot/autothread"
	"intro-bot/models"
	"intro-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// templateOff clears a stored template.
const templateOff = "off"

// HandleAutoThread routes /auto-thread subcommands.
func (h *Handler) HandleAutoThread(s *discordgo.Session, i *discordgo.InteractionCreate) {
	path, opts := subcommand(i.ApplicationCommandData().Options)

	var (
		reply string
		embed *discordgo.MessageEmbed
		err   error
	)
	switch path {
	case "enable", "disable":
		reply, err = h.toggleChannel(i, path == "enable", channelOption(opts, i.ChannelID))
	case "set replymessage", "set titletemplate", "set archiveduration", "set includebots":
		setting := strings.TrimPrefix(path, "set ")
		_, err = h.bot.Store.Update(i.GuildID, func(cfg *models.GuildConfig) error {
			var applyErr error
			reply, applyErr = applySetting(cfg, setting, opts)
			return applyErr
		})
	case "status":
		var cfg models.GuildConfig
		if cfg, err = h.bot.Store.Get(i.GuildID); err == nil {
			embed = statusEmbed(cfg, i.ChannelID)
		}
	case "list":
		var cfg models.GuildConfig
		if cfg, err = h.bot.Store.Get(i.GuildID); err == nil {
			reply = listReply(cfg)
		}
	case "test":
		reply, err = h.previewTitle(i, stringOption(opts, "value"))
	default:
		reply = "Unknown subcommand."
	}

	var invalid *invalidSettingError
	switch {
	case errors.As(err, &invalid):
		reply = invalid.Error()
	case err != nil:
		h.logger.Error("auto-thread command failed", "guild_id", i.GuildID, "subcommand", path, "error", err)
		reply = "Something went wrong saving the settings. Please try again or contact a moderator."
	}

	if embed != nil && err == nil {
		err = respondEmbed(s, i, embed)
	} else {
		err = respondEphemeral(s, i, reply)
	}
	if err != nil {
		h.logger.Warn("failed to respond to auto-thread command", "error", err)
	}
}

func (h *Handler) toggleChannel(i *discordgo.InteractionCreate, enable bool, channelID string) (string, error) {
	var changed bool
	_, err := h.bot.Store.Update(i.GuildID, func(cfg *models.GuildConfig) error {
		if enable {
			changed = cfg.EnableChannel(channelID)
		} else {
			changed = cfg.DisableChannel(channelID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	switch {
	case enable && changed:
		return fmt.Sprintf("✅ New messages in <#%s> will get a discussion thread.", channelID), nil
	case enable:
		return fmt.Sprintf("Auto-threading is already enabled in <#%s>.", channelID), nil
	case changed:
		return fmt.Sprintf("Auto-threading disabled in <#%s>.", channelID), nil
	default:
		return fmt.Sprintf("Auto-threading wasn't enabled in <#%s>.", channelID), nil
	}
}

func (h *Handler) previewTitle(i *discordgo.InteractionCreate, content string) (string, error) {
	cfg, err := h.bot.Store.Get(i.GuildID)
	if err != nil {
		return "", err
	}
	user := interactionUser(i)
	if user == nil {
		return "", errors.New("interaction has no user")
	}
	m := autothread.FromUser(user, i.Member, i.GuildID, i.ChannelID, h.bot.Platform.ChannelName(i.ChannelID), i.ID, content)
	return previewReply(cfg, m), nil
}

func previewReply(cfg models.GuildConfig, m autothread.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Title:** %s", autothread.GenerateTitle(m, cfg.TitleTemplate))
	if cfg.ReplyMessage != "" {
		fmt.Fprintf(&b, "\n**Reply:** %s", autothread.RenderTemplate(cfg.ReplyMessage, m))
	}
	return b.String()
}

type invalidSettingError struct {
	msg string
}

func (e *invalidSettingError) Error() string { return e.msg }

// applySetting changes one guild setting and returns the confirmation text.
func applySetting(cfg *models.GuildConfig, setting string, opts []*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	switch setting {
	case "replymessage", "titletemplate":
		value := strings.TrimSpace(stringOption(opts, "value"))
		if strings.EqualFold(value, templateOff) {
			value = ""
		} else if err := autothread.ValidateTemplate(value); err != nil {
			return "", &invalidSettingError{fmt.Sprintf("❌ %v. Available placeholders: %s", err, autothread.PlaceholderHelp())}
		}
		if setting == "replymessage" {
			cfg.ReplyMessage = value
			if value == "" {
				return "Thread replies disabled.", nil
			}
			return fmt.Sprintf("Reply message set to: %s", value), nil
		}
		cfg.TitleTemplate = value
		if value == "" {
			return "Thread titles will use the start of the message.", nil
		}
		return fmt.Sprintf("Title template set to: %s", value), nil

	case "archiveduration":
		d, err := models.ParseArchiveDuration(int(intOption(opts, "minutes")))
		if err != nil {
			return "", &invalidSettingError{"❌ " + err.Error()}
		}
		cfg.ArchiveDuration = d
		return fmt.Sprintf("Threads will auto-archive after %d minutes of inactivity.", d), nil

	case "includebots":
		cfg.IncludeBots = boolOption(opts, "value")
		if cfg.IncludeBots {
			return "Messages from bots will get threads too.", nil
		}
		return "Messages from bots will be ignored.", nil
	}
	return "", &invalidSettingError{"Unknown setting."}
}

func statusEmbed(cfg models.GuildConfig, channelID string) *discordgo.MessageEmbed {
	here := "❌ disabled"
	if cfg.ChannelEnabled(channelID) {
		here = "✅ enabled"
	}
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return &discordgo.MessageEmbed{
		Title: "Auto-thread settings",
		Color: utils.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "This channel", Value: here, Inline: true},
			{Name: "Enabled channels", Value: fmt.Sprint(len(cfg.EnabledChannels)), Inline: true},
			{Name: "Include bots", Value: fmt.Sprint(cfg.IncludeBots), Inline: true},
			{Name: "Archive after", Value: fmt.Sprintf("%d minutes", cfg.ArchiveDuration), Inline: true},
			{Name: "Title template", Value: orDefault(cfg.TitleTemplate, "_first 50 characters of the message_")},
			{Name: "Reply message", Value: orDefault(cfg.ReplyMessage, "_none_")},
		},
	}
}

func listReply(cfg models.GuildConfig) string {
	if len(cfg.EnabledChannels) == 0 {
		return "Auto-threading isn't enabled in any channel."
	}
	lines := make([]string, len(cfg.EnabledChannels))
	for i, id := range cfg.EnabledChannels {
		lines[i] = "• <#" + id + ">"
	}
	return "Auto-threading is enabled in:\n" + strings.Join(lines, "\n")
}

// subcommand flattens a subcommand or group/subcommand into a space separated
// path and returns the innermost options.
func subcommand(options []*discordgo.ApplicationCommandInteractionDataOption) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	var path []string
	for len(options) == 1 {
		opt := options[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand && opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		path = append(path, opt.Name)
		options = opt.Options
	}
	return strings.Join(path, " "), options
}

func findOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range opts {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt := findOption(opts, name); opt != nil {
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return ""
}

func intOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt := findOption(opts, name); opt != nil {
		if v, ok := opt.Value.(float64); ok {
			return int64(v)
		}
	}
	return 0
}

func boolOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt := findOption(opts, name); opt != nil {
		if v, ok := opt.Value.(bool); ok {
			return v
		}
	}
	return false
}

// channelOption returns the channel option's id, or fallback when it was omitted.
func channelOption(opts []*discordgo.ApplicationCommandInteractionDataOption, fallback string) string {
	if id := stringOption(opts, "channel"); id != "" {
		return id
	}
	return fallback
}
