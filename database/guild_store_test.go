package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"intro-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildConfigStoreDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewGuildConfigStore(dir)
	require.NoError(t, err)

	cfg, err := store.Get("1001")
	require.NoError(t, err)
	assert.Equal(t, "1001", cfg.GuildID)
	assert.Equal(t, models.ArchiveOneDay, cfg.ArchiveDuration)
	assert.Empty(t, cfg.EnabledChannels)
	assert.Empty(t, cfg.ManuallyRenamedThreads)
	assert.False(t, cfg.IncludeBots)

	// defaults are not written until Set
	_, err = os.Stat(filepath.Join(dir, "1001.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGuildConfigStoreRoundTrip(t *testing.T) {
	store, err := NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := models.GuildConfig{
		EnabledChannels:        []string{"c1", "c2"},
		IncludeBots:            true,
		TitleTemplate:          "{username}: {content50}",
		ReplyMessage:           "Thanks {displayName}!",
		ArchiveDuration:        models.ArchiveOneWeek,
		ManuallyRenamedThreads: []string{"t9", "t3", "t5"},
	}
	require.NoError(t, store.Set("42", cfg))

	store.Evict("42")
	got, err := store.Get("42")
	require.NoError(t, err)

	assert.Equal(t, "42", got.GuildID)
	assert.ElementsMatch(t, cfg.EnabledChannels, got.EnabledChannels)
	assert.ElementsMatch(t, cfg.ManuallyRenamedThreads, got.ManuallyRenamedThreads)
	assert.Equal(t, cfg.IncludeBots, got.IncludeBots)
	assert.Equal(t, cfg.TitleTemplate, got.TitleTemplate)
	assert.Equal(t, cfg.ReplyMessage, got.ReplyMessage)
	assert.Equal(t, cfg.ArchiveDuration, got.ArchiveDuration)
}

func TestGuildConfigStoreGetReturnsCopy(t *testing.T) {
	store, err := NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Get("7")
	require.NoError(t, err)
	cfg.EnableChannel("mutated")

	again, err := store.Get("7")
	require.NoError(t, err)
	assert.Empty(t, again.EnabledChannels)
}

func TestGuildConfigStoreUpdate(t *testing.T) {
	store, err := NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Update("7", func(c *models.GuildConfig) error {
		c.EnableChannel("general")
		return nil
	})
	require.NoError(t, err)

	_, err = store.Update("7", func(c *models.GuildConfig) error {
		c.MarkRenamed("thread-1")
		return nil
	})
	require.NoError(t, err)

	store.Evict("7")
	cfg, err := store.Get("7")
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, cfg.EnabledChannels)
	assert.Equal(t, []string{"thread-1"}, cfg.ManuallyRenamedThreads)
}

func TestGuildConfigStoreUpdateAbort(t *testing.T) {
	store, err := NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update("7", func(c *models.GuildConfig) error {
		c.EnableChannel("general")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cfg, err := store.Get("7")
	require.NoError(t, err)
	assert.Empty(t, cfg.EnabledChannels)
}

func TestGuildConfigStoreRejectsBadIDs(t *testing.T) {
	store, err := NewGuildConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("../escape", models.GuildConfig{}))
	_, err = store.Get("")
	assert.Error(t, err)
}

func TestGuildConfigStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "5.json"), []byte("{not json"), 0644))

	store, err := NewGuildConfigStore(dir)
	require.NoError(t, err)
	_, err = store.Get("5")
	assert.Error(t, err)
}
