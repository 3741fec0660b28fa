package command

import (
	"strconv"

	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
)

var (
	manageGuild     int64 = discordgo.PermissionManageGuild
	moderateMembers int64 = discordgo.PermissionModerateMembers
	dmPermission          = true
	noDMs                 = false
)

// PingIntroCommand defines the structure for the /ping-intro command.
type PingIntroCommand struct{}

// Definition returns the application command definition.
func (c *PingIntroCommand) Definition() *discordgo.ApplicationCommand {
	userOption := func(name string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Name:        name,
			Description: "Member to send the introduction prompt to",
			Type:        discordgo.ApplicationCommandOptionUser,
			Required:    required,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:                     "ping-intro",
		Description:              "DM members the introduction prompt",
		DefaultMemberPermissions: &moderateMembers,
		DMPermission:             &noDMs,
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", true),
			userOption("user2", false),
			userOption("user3", false),
		},
	}
}

// ClearDMCommand defines the structure for the /clear-dm command.
type ClearDMCommand struct{}

// Definition returns the application command definition.
func (c *ClearDMCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:         "clear-dm",
		Description:  "Delete the messages I sent you in DMs",
		DMPermission: &dmPermission,
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Show bot latency, uptime and memory use",
	}
}

// AutoThreadCommand defines the structure for the /auto-thread command.
type AutoThreadCommand struct{}

// Definition returns the application command definition.
func (c *AutoThreadCommand) Definition() *discordgo.ApplicationCommand {
	channelOption := &discordgo.ApplicationCommandOption{
		Name:         "channel",
		Description:  "Channel to configure (defaults to this one)",
		Type:         discordgo.ApplicationCommandOptionChannel,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
	}
	textOption := func(description string, autocomplete bool) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{
			Name:         "value",
			Description:  description,
			Type:         discordgo.ApplicationCommandOptionString,
			Required:     true,
			MaxLength:    1000,
			Autocomplete: autocomplete,
		}}
	}
	archiveChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.ArchiveDurations))
	for _, d := range models.ArchiveDurations {
		archiveChoices = append(archiveChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  archiveLabel(d),
			Value: int(d),
		})
	}

	return &discordgo.ApplicationCommand{
		Name:                     "auto-thread",
		Description:              "Configure automatic discussion threads",
		DefaultMemberPermissions: &manageGuild,
		DMPermission:             &noDMs,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "enable",
				Description: "Start threads for new messages in a channel",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options:     []*discordgo.ApplicationCommandOption{channelOption},
			},
			{
				Name:        "disable",
				Description: "Stop threading a channel",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options:     []*discordgo.ApplicationCommandOption{channelOption},
			},
			{
				Name:        "set",
				Description: "Change a setting",
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "replymessage",
						Description: "Message posted in each new thread",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Options:     textOption("Template, or off to disable", true),
					},
					{
						Name:        "titletemplate",
						Description: "Template for thread titles",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Options:     textOption("Template, or off for the message start", true),
					},
					{
						Name:        "archiveduration",
						Description: "How long threads stay open without activity",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Options: []*discordgo.ApplicationCommandOption{{
							Name:        "minutes",
							Description: "Auto-archive duration",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
							Choices:     archiveChoices,
						}},
					},
					{
						Name:        "includebots",
						Description: "Whether bot messages get threads",
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Options: []*discordgo.ApplicationCommandOption{{
							Name:        "value",
							Description: "Include bot messages",
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Required:    true,
						}},
					},
				},
			},
			{
				Name:        "status",
				Description: "Show the settings for this server",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "list",
				Description: "List channels with auto-threading",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "test",
				Description: "Preview the thread title for some text",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options:     textOption("Sample message content", false),
			},
		},
	}
}

func archiveLabel(d models.ArchiveDuration) string {
	switch d {
	case models.ArchiveOneHour:
		return "1 hour"
	case models.ArchiveOneDay:
		return "24 hours"
	case models.ArchiveThreeDays:
		return "3 days"
	case models.ArchiveOneWeek:
		return "1 week"
	}
	return strconv.Itoa(int(d)) + " minutes"
}
