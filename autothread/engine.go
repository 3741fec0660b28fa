package autothread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"intro-bot/metrics"
	"intro-bot/models"
	"intro-bot/queue"

	"github.com/bwmarrin/discordgo"
)

// ErrMissingPermission is returned when the bot can't start threads in a channel.
var ErrMissingPermission = errors.New("missing permission to create public threads")

// Platform is the subset of the chat API the engine drives.
type Platform interface {
	UserChannelPermissions(userID, channelID string) (int64, error)
	StartThread(channelID, messageID, name string, archive models.ArchiveDuration) (*discordgo.Channel, error)
	RenameThread(threadID, name string) (*discordgo.Channel, error)
	SendMessage(channelID, content string) (*discordgo.Message, error)
	GuildOwnerID(guildID string) (string, error)
	SendDM(userID, content string) error
}

// ConfigStore reads and atomically updates guild configs.
type ConfigStore interface {
	Get(guildID string) (models.GuildConfig, error)
	Update(guildID string, fn func(*models.GuildConfig) error) (models.GuildConfig, error)
}

// Enqueuer runs platform operations one at a time.
type Enqueuer interface {
	Enqueue(name string, task queue.Task) *queue.Future
}

// Engine applies guild auto-thread policy to incoming messages.
type Engine struct {
	platform  Platform
	store     ConfigStore
	queue     Enqueuer
	botUserID string
	logger    *slog.Logger

	mu        sync.Mutex
	autoNames map[string]string // thread id -> last name the engine set
}

// NewEngine creates an engine acting as botUserID.
func NewEngine(platform Platform, store ConfigStore, q Enqueuer, botUserID string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		platform:  platform,
		store:     store,
		queue:     q,
		botUserID: botUserID,
		logger:    logger,
		autoNames: make(map[string]string),
	}
}

// SetBotUserID updates the identity used for permission checks once the gateway is ready.
func (e *Engine) SetBotUserID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.botUserID = id
}

func (e *Engine) botID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.botUserID
}

// CreateThreadForMessage starts a thread for m when the guild policy allows it.
// It returns (nil, nil) when m does not qualify and ErrMissingPermission when
// the bot lacks the capability, after telling a guild manager about it.
func (e *Engine) CreateThreadForMessage(ctx context.Context, m Message) (*discordgo.Channel, error) {
	cfg, err := e.store.Get(m.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild config: %w", err)
	}
	if !ShouldCreateThread(m, cfg) {
		return nil, nil
	}
	return e.startThread(ctx, m, cfg)
}

// ForceThreadForMessage starts a thread for m in any guild channel, ignoring
// the enabled-channel policy. Used for content the bot posts itself.
func (e *Engine) ForceThreadForMessage(ctx context.Context, m Message) (*discordgo.Channel, error) {
	cfg, err := e.store.Get(m.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild config: %w", err)
	}
	return e.startThread(ctx, m, cfg)
}

func (e *Engine) startThread(ctx context.Context, m Message, cfg models.GuildConfig) (*discordgo.Channel, error) {
	perms, err := e.platform.UserChannelPermissions(e.botID(), m.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to check permissions in channel %s: %w", m.ChannelID, err)
	}
	if perms&discordgo.PermissionCreatePublicThreads == 0 {
		e.notifyMissingPermission(m)
		return nil, ErrMissingPermission
	}

	title := GenerateTitle(m, cfg.TitleTemplate)
	reply := ""
	if cfg.ReplyMessage != "" {
		reply = RenderTemplate(cfg.ReplyMessage, m)
	}

	future := e.queue.Enqueue("start_thread", func(ctx context.Context) (any, error) {
		thread, err := e.platform.StartThread(m.ChannelID, m.ID, title, cfg.ArchiveDuration)
		if err != nil {
			return nil, err
		}
		e.rememberName(thread.ID, title)
		metrics.ThreadsCreated.Inc()
		return thread, nil
	})

	v, err := future.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start thread for message %s: %w", m.ID, err)
	}
	thread := v.(*discordgo.Channel)

	if reply != "" {
		e.queue.Enqueue("thread_reply", func(ctx context.Context) (any, error) {
			return e.platform.SendMessage(thread.ID, reply)
		})
	}
	return thread, nil
}

func (e *Engine) notifyMissingPermission(m Message) {
	ownerID, err := e.platform.GuildOwnerID(m.GuildID)
	if err != nil {
		e.logger.Warn("could not find guild owner to report missing permission", "guild_id", m.GuildID, "error", err)
		return
	}
	perms, err := e.platform.UserChannelPermissions(ownerID, m.ChannelID)
	if err != nil || perms&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) == 0 {
		e.logger.Warn("guild owner can't manage the guild, skipping notification", "guild_id", m.GuildID)
		return
	}
	content := fmt.Sprintf("I need the **Create Public Threads** permission in <#%s> to auto-thread messages there.", m.ChannelID)
	if err := e.platform.SendDM(ownerID, content); err != nil {
		e.logger.Warn("failed to notify guild owner about missing permission", "guild_id", m.GuildID, "error", err)
	}
}

// UpdateThreadTitle recomputes the title of a thread started from m and queues
// a rename when it changed. Only threads the engine started, or threads in a
// channel that is still enabled, are retitled. It returns nil when nothing was
// queued, including for threads a human renamed.
func (e *Engine) UpdateThreadTitle(m Message, thread *discordgo.Channel) (*queue.Future, error) {
	cfg, err := e.store.Get(m.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild config: %w", err)
	}
	if cfg.IsManuallyRenamed(thread.ID) {
		return nil, nil
	}
	if !e.Tracks(thread.ID) && !cfg.ChannelEnabled(m.ChannelID) {
		return nil, nil
	}

	title := GenerateTitle(m, cfg.TitleTemplate)
	if title == thread.Name {
		return nil, nil
	}

	e.rememberName(thread.ID, title)
	threadID := thread.ID
	return e.queue.Enqueue("rename_thread", func(ctx context.Context) (any, error) {
		return e.platform.RenameThread(threadID, title)
	}), nil
}

// MarkThreadAsManuallyRenamed stops title updates for threadID.
func (e *Engine) MarkThreadAsManuallyRenamed(guildID, threadID string) error {
	_, err := e.store.Update(guildID, func(cfg *models.GuildConfig) error {
		cfg.MarkRenamed(threadID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark thread %s as renamed: %w", threadID, err)
	}
	e.mu.Lock()
	delete(e.autoNames, threadID)
	e.mu.Unlock()
	return nil
}

// IsAutomaticName reports whether name is the last title the engine set for threadID.
func (e *Engine) IsAutomaticName(threadID, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	set, ok := e.autoNames[threadID]
	return ok && set == name
}

// Tracks reports whether the engine has set a name for threadID in this process.
func (e *Engine) Tracks(threadID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.autoNames[threadID]
	return ok
}

// Forget drops the remembered name for a thread that was archived or deleted.
func (e *Engine) Forget(threadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.autoNames, threadID)
}

func (e *Engine) rememberName(threadID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoNames[threadID] = name
}
