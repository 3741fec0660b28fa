package models

import (
	"fmt"
	"slices"
)

// ArchiveDuration is a thread auto-archive duration in minutes.
type ArchiveDuration int

const (
	ArchiveOneHour   ArchiveDuration = 60
	ArchiveOneDay    ArchiveDuration = 1440
	ArchiveThreeDays ArchiveDuration = 4320
	ArchiveOneWeek   ArchiveDuration = 10080
)

// ArchiveDurations lists every duration the platform accepts.
var ArchiveDurations = []ArchiveDuration{ArchiveOneHour, ArchiveOneDay, ArchiveThreeDays, ArchiveOneWeek}

// ParseArchiveDuration validates a minute count.
func ParseArchiveDuration(minutes int) (ArchiveDuration, error) {
	d := ArchiveDuration(minutes)
	if !slices.Contains(ArchiveDurations, d) {
		return 0, fmt.Errorf("invalid archive duration %d: must be one of 60, 1440, 4320, 10080", minutes)
	}
	return d, nil
}

// GuildConfig holds the auto-thread settings of a single guild.
type GuildConfig struct {
	GuildID                string          `json:"guildId"`
	EnabledChannels        []string        `json:"enabledChannels"`
	IncludeBots            bool            `json:"includeBots"`
	TitleTemplate          string          `json:"titleTemplate,omitempty"`
	ReplyMessage           string          `json:"replyMessage,omitempty"`
	ArchiveDuration        ArchiveDuration `json:"archiveDuration"`
	ManuallyRenamedThreads []string        `json:"manuallyRenamedThreads"`
}

// DefaultGuildConfig is used for guilds that were never configured.
func DefaultGuildConfig(guildID string) GuildConfig {
	return GuildConfig{
		GuildID:                guildID,
		EnabledChannels:        []string{},
		ArchiveDuration:        ArchiveOneDay,
		ManuallyRenamedThreads: []string{},
	}
}

// ChannelEnabled reports whether auto-threading applies to channelID.
func (c GuildConfig) ChannelEnabled(channelID string) bool {
	return slices.Contains(c.EnabledChannels, channelID)
}

// IsManuallyRenamed reports whether threadID is excluded from title updates.
func (c GuildConfig) IsManuallyRenamed(threadID string) bool {
	return slices.Contains(c.ManuallyRenamedThreads, threadID)
}

// EnableChannel adds channelID to the enabled set. It reports whether the set changed.
func (c *GuildConfig) EnableChannel(channelID string) bool {
	if c.ChannelEnabled(channelID) {
		return false
	}
	c.EnabledChannels = append(c.EnabledChannels, channelID)
	return true
}

// DisableChannel removes channelID from the enabled set. It reports whether the set changed.
func (c *GuildConfig) DisableChannel(channelID string) bool {
	i := slices.Index(c.EnabledChannels, channelID)
	if i < 0 {
		return false
	}
	c.EnabledChannels = slices.Delete(c.EnabledChannels, i, i+1)
	return true
}

// MarkRenamed adds threadID to the manually renamed set.
func (c *GuildConfig) MarkRenamed(threadID string) bool {
	if c.IsManuallyRenamed(threadID) {
		return false
	}
	c.ManuallyRenamedThreads = append(c.ManuallyRenamedThreads, threadID)
	return true
}

// Clone returns a deep copy so callers can't mutate cached state.
func (c GuildConfig) Clone() GuildConfig {
	out := c
	out.EnabledChannels = slices.Clone(c.EnabledChannels)
	out.ManuallyRenamedThreads = slices.Clone(c.ManuallyRenamedThreads)
	if out.EnabledChannels == nil {
		out.EnabledChannels = []string{}
	}
	if out.ManuallyRenamedThreads == nil {
		out.ManuallyRenamedThreads = []string{}
	}
	return out
}
