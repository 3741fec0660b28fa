package onboarding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"intro-bot/metrics"
	"intro-bot/models"
)

// DefaultReminderDelay is how long after the flow starts a reminder fires.
const DefaultReminderDelay = 24 * time.Hour

// Messenger delivers direct messages.
type Messenger interface {
	SendDM(userID, content string) error
}

// ReminderScheduler keeps pending reminders in memory. Sent reminders stay in
// the list for the life of the process.
type ReminderScheduler struct {
	mutex     sync.Mutex
	reminders []*models.Reminder
	delay     time.Duration
	messenger Messenger
	logger    *slog.Logger
	now       func() time.Time
}

// NewReminderScheduler creates a scheduler that fires reminders delay after scheduling.
func NewReminderScheduler(messenger Messenger, delay time.Duration, logger *slog.Logger) *ReminderScheduler {
	if delay <= 0 {
		delay = DefaultReminderDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderScheduler{
		delay:     delay,
		messenger: messenger,
		logger:    logger,
		now:       time.Now,
	}
}

func (rs *ReminderScheduler) pendingIndex(guildID, userID string) int {
	for i, r := range rs.reminders {
		if !r.Sent && r.GuildID == guildID && r.UserID == userID && r.ReminderType == models.ReminderIntro {
			return i
		}
	}
	return -1
}

// Schedule adds a reminder for the pair unless one is already pending.
// It reports whether a reminder was created.
func (rs *ReminderScheduler) Schedule(guildID, userID string) bool {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if rs.pendingIndex(guildID, userID) >= 0 {
		return false
	}
	rs.reminders = append(rs.reminders, &models.Reminder{
		GuildID:      guildID,
		UserID:       userID,
		ReminderType: models.ReminderIntro,
		ScheduledFor: rs.now().Add(rs.delay),
	})
	return true
}

// Cancel removes the pending reminder for the pair, if any.
func (rs *ReminderScheduler) Cancel(guildID, userID string) bool {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	i := rs.pendingIndex(guildID, userID)
	if i < 0 {
		return false
	}
	rs.reminders = append(rs.reminders[:i], rs.reminders[i+1:]...)
	return true
}

// Pending returns copies of all reminders not yet sent.
func (rs *ReminderScheduler) Pending() []models.Reminder {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	var out []models.Reminder
	for _, r := range rs.reminders {
		if !r.Sent {
			out = append(out, *r)
		}
	}
	return out
}

// Sweep delivers every due reminder. A reminder is marked sent whether or not
// delivery worked so users are never nudged twice.
func (rs *ReminderScheduler) Sweep(ctx context.Context) (sent, failed int) {
	rs.mutex.Lock()
	now := rs.now()
	var due []models.Reminder
	for _, r := range rs.reminders {
		if !r.Sent && !r.ScheduledFor.After(now) {
			r.Sent = true
			due = append(due, *r)
		}
	}
	rs.mutex.Unlock()

	for _, r := range due {
		if ctx.Err() != nil {
			rs.logger.Warn("reminder sweep interrupted", "remaining", len(due)-sent-failed)
			break
		}
		if err := rs.messenger.SendDM(r.UserID, ReminderText()); err != nil {
			failed++
			metrics.RemindersSent.WithLabelValues("failed").Inc()
			rs.logger.Warn("failed to deliver reminder", "guild_id", r.GuildID, "user_id", r.UserID, "error", err)
			continue
		}
		sent++
		metrics.RemindersSent.WithLabelValues("sent").Inc()
	}
	return sent, failed
}
