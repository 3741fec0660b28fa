package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"intro-bot/autothread"
	"intro-bot/command"
	"intro-bot/database"
	healthsrv "intro-bot/grpc"
	"intro-bot/metrics"
	"intro-bot/models"
	"intro-bot/onboarding"
	"intro-bot/queue"
	"intro-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Config    *models.BotConfig
	Session   *discordgo.Session
	Platform  *Platform
	Logger    *slog.Logger
	Reporter  *utils.Reporter
	Auth      *utils.Auth
	StartedAt time.Time

	Queue       *queue.TaskQueue
	Store       *database.GuildConfigStore
	Submissions *database.SubmissionDB
	Engine      *autothread.Engine
	Reminders   *onboarding.ReminderScheduler
	Completions *onboarding.CompletionTracker
	Flow        *onboarding.Flow

	metrics *metrics.Server
	health  *healthsrv.HealthServer
	cron    *cron.Cron
}

// NewBot creates and initializes a new Bot instance.
func NewBot(cfg *models.BotConfig, logger *slog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	store, err := database.NewGuildConfigStore(filepath.Join(cfg.Bot.DataDir, "guilds"))
	if err != nil {
		return nil, err
	}
	submissions, err := database.InitSubmissionDB(cfg.Bot.SubmissionDB)
	if err != nil {
		return nil, err
	}

	platform := NewPlatform(dg)
	q := queue.New(
		queue.WithBackoff(cfg.Queue.BackoffFloor, cfg.Queue.BackoffCeiling),
		queue.WithInterTaskDelay(cfg.Queue.InterTaskDelay),
		queue.WithClassifier(DiscordRateLimit),
		queue.WithLogger(logger.With("module", "queue")),
	)
	engine := autothread.NewEngine(platform, store, q, "", logger.With("module", "autothread"))
	reminders := onboarding.NewReminderScheduler(platform, cfg.Onboarding.ReminderDelay, logger.With("module", "reminders"))
	completions := onboarding.NewCompletionTracker(cfg.Onboarding.CompletionTTL)
	flow := onboarding.NewFlow(cfg.Guilds, platform, engine, submissions, reminders, completions, logger.With("module", "onboarding"))

	b := &Bot{
		Config:      cfg,
		Session:     dg,
		Platform:    platform,
		Logger:      logger,
		Reporter:    utils.NewReporter(platform, cfg.Bot.AdminChannelID, logger),
		Auth:        utils.NewAuth(cfg.Guilds),
		Queue:       q,
		Store:       store,
		Submissions: submissions,
		Engine:      engine,
		Reminders:   reminders,
		Completions: completions,
		Flow:        flow,
	}
	if cfg.Metrics.Addr != "" {
		b.metrics = metrics.NewServer(cfg.Metrics.Addr)
	}
	if cfg.Health.Addr != "" {
		b.health = healthsrv.NewHealthServer(cfg.Health.Addr)
	}
	return b, nil
}

// SetReady reports gateway readiness to the health service.
func (b *Bot) SetReady(ready bool) {
	if b.health != nil {
		b.health.SetServing(ready)
	}
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if b.health != nil {
		if err := b.health.Start(); err != nil {
			return err
		}
	}
	if b.metrics != nil {
		b.metrics.Start()
	}

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	b.StartedAt = time.Now()
	b.Engine.SetBotUserID(b.Session.State.User.ID)

	if err := b.registerCommands(); err != nil {
		b.Reporter.Error("bot", "register commands", err.Error())
	}

	if err := b.startScheduler(); err != nil {
		return err
	}

	b.Logger.Info("bot is now running, press CTRL-C to exit")
	return nil
}

func (b *Bot) registerCommands() error {
	defs := command.GetCommandDefinitions()
	created, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, b.Config.Bot.GuildID, defs)
	if err != nil {
		return fmt.Errorf("cannot overwrite application commands: %w", err)
	}
	b.Logger.Info("registered application commands", "count", len(created), "guild_id", b.Config.Bot.GuildID)
	return nil
}

// Stop gracefully shuts everything down.
func (b *Bot) Stop() {
	b.stopScheduler()
	if b.health != nil {
		b.health.Stop()
	}
	b.Queue.Close()
	if b.Session != nil {
		if err := b.Session.Close(); err != nil {
			b.Logger.Warn("error closing session", "error", err)
		}
	}
	if err := b.Submissions.Close(); err != nil {
		b.Logger.Warn("error closing submission database", "error", err)
	}
	if b.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.metrics.Shutdown(ctx); err != nil {
			b.Logger.Warn("error stopping metrics server", "error", err)
		}
	}
	b.Logger.Info("bot stopped gracefully")
}

// Run starts the bot and blocks until SIGINT or SIGTERM.
func Run(cfg *models.BotConfig, logger *slog.Logger, registerHandlers func(*Bot)) error {
	b, err := NewBot(cfg, logger)
	if err != nil {
		return fmt.Errorf("error initializing bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Start(registerHandlers); err != nil {
		b.Stop()
		return fmt.Errorf("error starting bot: %w", err)
	}

	<-ctx.Done()
	b.Stop()
	return nil
}
