package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"intro-bot/models"
)

// GuildConfigStore keeps one JSON file per guild under dir and caches what it reads.
type GuildConfigStore struct {
	dir   string
	mutex sync.Mutex
	cache map[string]models.GuildConfig
	locks map[string]*sync.Mutex
}

// NewGuildConfigStore creates the storage directory if needed.
func NewGuildConfigStore(dir string) (*GuildConfigStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create guild config directory: %w", err)
	}
	return &GuildConfigStore{
		dir:   dir,
		cache: make(map[string]models.GuildConfig),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (gs *GuildConfigStore) path(guildID string) (string, error) {
	if guildID == "" || strings.ContainsAny(guildID, `/\.`) {
		return "", fmt.Errorf("invalid guild id %q", guildID)
	}
	return filepath.Join(gs.dir, guildID+".json"), nil
}

// Get returns the cached config, the persisted one, or a fresh default.
// A default config is cached but not written until Set is called.
func (gs *GuildConfigStore) Get(guildID string) (models.GuildConfig, error) {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	if cfg, ok := gs.cache[guildID]; ok {
		return cfg.Clone(), nil
	}

	cfg, err := gs.load(guildID)
	if err != nil {
		return models.GuildConfig{}, err
	}
	gs.cache[guildID] = cfg
	return cfg.Clone(), nil
}

func (gs *GuildConfigStore) load(guildID string) (models.GuildConfig, error) {
	path, err := gs.path(guildID)
	if err != nil {
		return models.GuildConfig{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.DefaultGuildConfig(guildID), nil
	}
	if err != nil {
		return models.GuildConfig{}, fmt.Errorf("failed to read guild config %s: %w", guildID, err)
	}

	cfg := models.DefaultGuildConfig(guildID)
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.GuildConfig{}, fmt.Errorf("failed to parse guild config %s: %w", guildID, err)
	}
	cfg.GuildID = guildID
	if cfg.ArchiveDuration == 0 {
		cfg.ArchiveDuration = models.ArchiveOneDay
	}
	return cfg.Clone(), nil
}

// Set writes the full record and replaces the cache entry. The cache is left
// untouched when the write fails.
func (gs *GuildConfigStore) Set(guildID string, cfg models.GuildConfig) error {
	path, err := gs.path(guildID)
	if err != nil {
		return err
	}

	cfg = cfg.Clone()
	cfg.GuildID = guildID
	slices.Sort(cfg.ManuallyRenamedThreads)

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal guild config: %w", err)
	}

	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	tmp, err := os.CreateTemp(gs.dir, guildID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for guild %s: %w", guildID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write guild config %s: %w", guildID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write guild config %s: %w", guildID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace guild config %s: %w", guildID, err)
	}

	gs.cache[guildID] = cfg
	return nil
}

// Update applies fn to the current config and persists the result. Updates of
// the same guild are serialized; fn returning an error aborts without writing.
func (gs *GuildConfigStore) Update(guildID string, fn func(*models.GuildConfig) error) (models.GuildConfig, error) {
	lock := gs.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	cfg, err := gs.Get(guildID)
	if err != nil {
		return models.GuildConfig{}, err
	}
	if err := fn(&cfg); err != nil {
		return models.GuildConfig{}, err
	}
	if err := gs.Set(guildID, cfg); err != nil {
		return models.GuildConfig{}, err
	}
	return cfg, nil
}

func (gs *GuildConfigStore) guildLock(guildID string) *sync.Mutex {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()
	lock, ok := gs.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		gs.locks[guildID] = lock
	}
	return lock
}

// Evict drops a guild from the cache so the next Get reads from disk.
func (gs *GuildConfigStore) Evict(guildID string) {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()
	delete(gs.cache, guildID)
}
