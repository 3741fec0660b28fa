package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
BOT_TOKEN: file-token
bot:
  adminChannelId: "900"
  dataDir: /tmp/intro-bot
queue:
  interTaskDelay: 100ms
onboarding:
  reminderDelay: 12h
guilds:
  "111":
    name: Gophers
    introChannelId: "1"
    workingChannelId: "2"
    showcaseChannelId: "3"
    completionRoleId: "4"
    moderatorRoles: ["5", "6"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, "900", cfg.Bot.AdminChannelID)
	assert.Equal(t, filepath.Join("/tmp/intro-bot", "submissions.db"), cfg.Bot.SubmissionDB)
	assert.Equal(t, 100*time.Millisecond, cfg.Queue.InterTaskDelay)
	assert.Equal(t, time.Second, cfg.Queue.BackoffFloor)
	assert.Equal(t, 12*time.Hour, cfg.Onboarding.ReminderDelay)
	assert.Equal(t, "@hourly", cfg.Onboarding.ReminderSchedule)

	g, ok := cfg.Guilds["111"]
	require.True(t, ok)
	assert.Equal(t, "Gophers", g.Name)
	assert.Equal(t, []string{"5", "6"}, g.ModeratorRoles)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestLoadConfigDataDirEnvOverride(t *testing.T) {
	t.Setenv("BOT_DATADIR", "/var/lib/intro-bot")
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/intro-bot", cfg.Bot.DataDir)
	assert.Equal(t, filepath.Join("/var/lib/intro-bot", "submissions.db"), cfg.Bot.SubmissionDB)
}

func TestLoadConfigMissingToken(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "bot:\n  dataDir: x\n"))
	assert.ErrorContains(t, err, "BOT_TOKEN")
}

func TestValidateGuild(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "BOT_TOKEN: t\nguilds:\n  \"1\":\n    name: x\n"))
	assert.ErrorContains(t, err, "introChannelId")
}
