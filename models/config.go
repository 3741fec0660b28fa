package models

import "time"

// BotConfig is the typed view of config.yaml merged with the environment.
type BotConfig struct {
	Token      string                     `mapstructure:"BOT_TOKEN"`
	Bot        BotSection                 `mapstructure:"bot"`
	Log        LogSection                 `mapstructure:"log"`
	Queue      QueueSection               `mapstructure:"queue"`
	Onboarding OnboardingSection          `mapstructure:"onboarding"`
	Metrics    MetricsSection             `mapstructure:"metrics"`
	Health     HealthSection              `mapstructure:"health"`
	Guilds     map[string]OnboardingGuild `mapstructure:"guilds"`
}

// BotSection holds process-wide settings.
type BotSection struct {
	AdminChannelID string `mapstructure:"adminChannelId"`
	DataDir        string `mapstructure:"dataDir"`
	SubmissionDB   string `mapstructure:"submissionDb"`
	GuildID        string `mapstructure:"guildId"` // register commands to a single guild when set
}

// LogSection configures the slog handler.
type LogSection struct {
	Level string `mapstructure:"level"`
}

// QueueSection tunes the rate-limited task queue.
type QueueSection struct {
	BackoffFloor   time.Duration `mapstructure:"backoffFloor"`
	BackoffCeiling time.Duration `mapstructure:"backoffCeiling"`
	InterTaskDelay time.Duration `mapstructure:"interTaskDelay"`
}

// OnboardingSection tunes reminder and completion bookkeeping.
type OnboardingSection struct {
	ReminderDelay       time.Duration `mapstructure:"reminderDelay"`
	ReminderSchedule    string        `mapstructure:"reminderSchedule"`
	CompletionTTL       time.Duration `mapstructure:"completionTtl"`
	CompletionSchedule  string        `mapstructure:"completionSchedule"`
	SubmissionRetention time.Duration `mapstructure:"submissionRetention"`
	CleanupSchedule     string        `mapstructure:"cleanupSchedule"`
	StatsSchedule       string        `mapstructure:"statsSchedule"`
}

// MetricsSection enables the Prometheus endpoint when Addr is set.
type MetricsSection struct {
	Addr string `mapstructure:"addr"`
}

// HealthSection enables the gRPC health service when Addr is set.
type HealthSection struct {
	Addr string `mapstructure:"addr"`
}

// OnboardingGuild is the static per-guild onboarding wiring.
type OnboardingGuild struct {
	Name              string   `mapstructure:"name"`
	IntroChannelID    string   `mapstructure:"introChannelId"`
	WorkingChannelID  string   `mapstructure:"workingChannelId"`
	ShowcaseChannelID string   `mapstructure:"showcaseChannelId"`
	CompletionRoleID  string   `mapstructure:"completionRoleId"`
	ModeratorRoles    []string `mapstructure:"moderatorRoles"`
}

// ChannelFor returns the channel a form of the given type is posted to.
func (g OnboardingGuild) ChannelFor(form FormType) string {
	switch form {
	case FormIntro:
		return g.IntroChannelID
	case FormWorking:
		return g.WorkingChannelID
	case FormShowcase:
		return g.ShowcaseChannelID
	}
	return ""
}
