package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"intro-bot/models"

	"github.com/robfig/cron/v3"
)

// startScheduler starts the cron jobs.
func (b *Bot) startScheduler() error {
	b.Logger.Info("initializing scheduler")
	b.cron = cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	ob := b.Config.Onboarding
	jobs := []struct {
		name     string
		schedule string
		run      func()
	}{
		{"reminder sweep", ob.ReminderSchedule, b.sweepReminders},
		{"completion sweep", ob.CompletionSchedule, b.sweepCompletions},
		{"submission cleanup", ob.CleanupSchedule, b.cleanupSubmissions},
		{"stats report", ob.StatsSchedule, b.reportStats},
	}
	for _, job := range jobs {
		if _, err := b.cron.AddFunc(job.schedule, job.run); err != nil {
			return fmt.Errorf("could not set up %s job (%q): %w", job.name, job.schedule, err)
		}
		b.Logger.Info("cron job scheduled", "job", job.name, "schedule", job.schedule)
	}
	b.cron.Start()
	return nil
}

// stopScheduler stops the cron jobs and waits for running ones.
func (b *Bot) stopScheduler() {
	if b.cron == nil {
		return
	}
	<-b.cron.Stop().Done()
	b.Logger.Info("scheduler stopped")
}

func (b *Bot) sweepReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sent, failed := b.Reminders.Sweep(ctx)
	if sent == 0 && failed == 0 {
		return
	}
	details := fmt.Sprintf("Delivered %d reminder(s), %d could not be delivered.", sent, failed)
	if failed > 0 {
		b.Reporter.Warn("reminders", "sweep", details)
		return
	}
	b.Reporter.Info("reminders", "sweep", details)
}

func (b *Bot) sweepCompletions() {
	if removed := b.Completions.Sweep(); removed > 0 {
		b.Logger.Info("expired completion records", "count", removed)
	}
}

func (b *Bot) cleanupSubmissions() {
	deleted, err := b.Submissions.CleanupOldSubmissions(b.Config.Onboarding.SubmissionRetention)
	if err != nil {
		b.Reporter.Error("database", "cleanup", fmt.Sprintf("Failed to clean up submissions: %v", err))
		return
	}
	b.Reporter.Info("database", "cleanup", fmt.Sprintf("Removed %d submission(s) older than %s.", deleted, b.Config.Onboarding.SubmissionRetention))
}

// reportStats posts yesterday's onboarding counters of every configured guild.
func (b *Bot) reportStats() {
	yesterday := time.Now().AddDate(0, 0, -1)

	guildIDs := make([]string, 0, len(b.Config.Guilds))
	for id := range b.Config.Guilds {
		guildIDs = append(guildIDs, id)
	}
	sort.Strings(guildIDs)

	for _, id := range guildIDs {
		stats, err := b.Submissions.DailyStats(id, yesterday)
		if err != nil {
			b.Reporter.Error("database", "stats", err.Error())
			continue
		}
		b.Reporter.Info("onboarding", "daily stats", statsSummary(b.Config.Guilds[id].Name, stats))
	}
}

func statsSummary(name string, s models.MemberStats) string {
	if name == "" {
		name = s.GuildID
	}
	return fmt.Sprintf("%s on %s: %d joined, %d left, %d finished onboarding.", name, s.Date, s.Joins, s.Leaves, s.Completions)
}
