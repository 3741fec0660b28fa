package utils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// NewLogger builds the process logger and installs it as the slog default.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.DateTime,
	}))
	slog.SetDefault(logger)
	return logger
}

var discordgoLevels = map[int]slog.Level{
	discordgo.LogDebug:         slog.LevelDebug,
	discordgo.LogInformational: slog.LevelInfo,
	discordgo.LogWarning:       slog.LevelWarn,
	discordgo.LogError:         slog.LevelError,
}

// BridgeDiscordgoLogs routes discordgo's internal logging through logger.
func BridgeDiscordgoLogs(logger *slog.Logger) {
	logger = logger.With("logger", "discordgo")
	discordgo.Logger = func(msgL, caller int, format string, a ...any) {
		level, ok := discordgoLevels[msgL]
		if !ok {
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, strings.ReplaceAll(fmt.Sprintf(format, a...), "\n", " "))
	}
}

// EmbedSender posts embeds to a channel.
type EmbedSender interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// Reporter mirrors operator-facing events to an admin channel. With no channel
// configured it only writes to the process log.
type Reporter struct {
	sender    EmbedSender
	channelID string
	logger    *slog.Logger
}

// NewReporter creates a reporter posting to channelID.
func NewReporter(sender EmbedSender, channelID string, logger *slog.Logger) *Reporter {
	if channelID == "" {
		logger.Warn("bot.adminChannelId is not set, admin channel reporting is disabled")
	}
	return &Reporter{sender: sender, channelID: channelID, logger: logger}
}

// Log sends a report to the admin channel.
func (r *Reporter) Log(level slog.Level, module, operation, details string) {
	r.logger.Log(context.Background(), level, details, "module", module, "operation", operation)
	if r.sender == nil || r.channelID == "" {
		return
	}

	var color int
	switch {
	case level >= slog.LevelError:
		color = ColorError
	case level >= slog.LevelWarn:
		color = ColorWarn
	default:
		color = ColorInfo
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: fieldValue(module), Inline: true},
			{Name: "Operation", Value: fieldValue(operation), Inline: true},
			{Name: "Details", Value: fieldValue(details)},
		},
	}
	if err := r.sender.SendEmbed(r.channelID, embed); err != nil {
		r.logger.Error("failed to send report to admin channel", "error", err)
	}
}

// maxFieldValue is Discord's limit on embed field values, in characters.
const maxFieldValue = 1024

// fieldValue fits s into an embed field. Discord rejects empty values.
func fieldValue(s string) string {
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) <= maxFieldValue {
		return s
	}
	return string(r[:maxFieldValue-1]) + "…"
}

// Info logs an informational report.
func (r *Reporter) Info(module, operation, details string) {
	r.Log(slog.LevelInfo, module, operation, details)
}

// Warn logs a warning report.
func (r *Reporter) Warn(module, operation, details string) {
	r.Log(slog.LevelWarn, module, operation, details)
}

// Error logs an error report.
func (r *Reporter) Error(module, operation, details string) {
	r.Log(slog.LevelError, module, operation, details)
}
