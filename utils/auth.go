package utils

import (
	"slices"

	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
)

// Level is the permission required to run a command.
type Level string

const (
	LevelGuest     Level = "guest"
	LevelModerator Level = "moderator"
	LevelManager   Level = "manager"
)

// Auth provides methods for authorization checks.
type Auth struct {
	guilds map[string]models.OnboardingGuild
}

// NewAuth creates a new Auth instance from the per-guild settings.
func NewAuth(guilds map[string]models.OnboardingGuild) *Auth {
	return &Auth{guilds: guilds}
}

// IsManager checks the guild-management permission computed for the member.
func (a *Auth) IsManager(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0
}

// IsModerator checks for a configured moderator role or management rights.
func (a *Auth) IsModerator(guildID string, member *discordgo.Member) bool {
	if a.IsManager(member) {
		return true
	}
	if member == nil {
		return false
	}
	for _, roleID := range a.guilds[guildID].ModeratorRoles {
		if slices.Contains(member.Roles, roleID) {
			return true
		}
	}
	return false
}

// CheckPermission checks if the invoking member has the required level.
func (a *Auth) CheckPermission(i *discordgo.InteractionCreate, required Level) bool {
	switch required {
	case LevelGuest:
		return true
	case LevelModerator:
		return a.IsModerator(i.GuildID, i.Member)
	case LevelManager:
		return a.IsManager(i.Member)
	default:
		return false
	}
}
