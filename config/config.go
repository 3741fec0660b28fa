package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"intro-bot/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.dataDir", "data")
	v.SetDefault("log.level", "info")
	v.SetDefault("queue.backoffFloor", time.Second)
	v.SetDefault("queue.backoffCeiling", time.Minute)
	v.SetDefault("queue.interTaskDelay", 250*time.Millisecond)
	v.SetDefault("onboarding.reminderDelay", 24*time.Hour)
	v.SetDefault("onboarding.reminderSchedule", "@hourly")
	v.SetDefault("onboarding.completionTtl", 24*time.Hour)
	v.SetDefault("onboarding.completionSchedule", "@every 30m")
	v.SetDefault("onboarding.submissionRetention", 31*24*time.Hour)
	v.SetDefault("onboarding.cleanupSchedule", "@daily")
	v.SetDefault("onboarding.statsSchedule", "5 0 * * *")
}

// LoadConfig 从 .env、config.yaml 和环境变量加载配置。
// 加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml, 或 configFile 指定的文件
// 环境变量会覆盖配置文件中的同名设置, 例如 BOT_DATADIR 覆盖 bot.dataDir。
func LoadConfig(configFile string) (*models.BotConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, skipping")
	}

	v := viper.New()
	setDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// AutomaticEnv only covers keys viper already knows about.
	_ = v.BindEnv("BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("config.yaml not found, using environment variables and defaults")
	}

	var cfg models.BotConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Bot.SubmissionDB == "" {
		cfg.Bot.SubmissionDB = filepath.Join(cfg.Bot.DataDir, "submissions.db")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func Validate(cfg *models.BotConfig) error {
	if cfg.Token == "" {
		return errors.New("no bot token provided, set BOT_TOKEN in your .env or config file")
	}
	if cfg.Queue.BackoffFloor <= 0 {
		return fmt.Errorf("queue.backoffFloor must be positive, got %s", cfg.Queue.BackoffFloor)
	}
	if cfg.Queue.BackoffCeiling < cfg.Queue.BackoffFloor {
		return fmt.Errorf("queue.backoffCeiling (%s) is below queue.backoffFloor (%s)", cfg.Queue.BackoffCeiling, cfg.Queue.BackoffFloor)
	}
	for id, g := range cfg.Guilds {
		if g.IntroChannelID == "" {
			return fmt.Errorf("guild %s: introChannelId is required", id)
		}
	}
	return nil
}
