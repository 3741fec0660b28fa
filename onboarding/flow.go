package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"intro-bot/autothread"
	"intro-bot/metrics"
	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
)

// ErrGuildNotConfigured is returned for guilds without onboarding settings.
var ErrGuildNotConfigured = errors.New("guild has no onboarding configuration")

// ErrRoleNotGranted is returned by Submit when the form was posted and the
// user finished every form, but the completion role could not be added. The
// user's progress and reminder are kept.
var ErrRoleNotGranted = errors.New("completion role not granted")

// Platform is what the flow needs from the chat API.
type Platform interface {
	Messenger
	SendDMComplex(userID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	ChannelName(channelID string) string
	AddRole(guildID, userID, roleID string) error
	AddThreadMember(threadID, userID string) error
}

// ThreadStarter starts discussion threads under guild policy.
type ThreadStarter interface {
	CreateThreadForMessage(ctx context.Context, m autothread.Message) (*discordgo.Channel, error)
}

// SubmissionStore records posted forms.
type SubmissionStore interface {
	InsertSubmission(sub models.Submission) (int64, error)
	SetThreadID(id int64, threadID string) error
}

// Submission is a modal form a user submitted.
type Submission struct {
	GuildID string
	User    *discordgo.User
	Member  *discordgo.Member
	Form    models.FormType
	Values  map[string]string
}

// SubmitResult describes what Submit did.
type SubmitResult struct {
	Message     *discordgo.Message
	Thread      *discordgo.Channel
	Completed   bool
	RoleGranted bool
}

// Flow runs the onboarding workflow.
type Flow struct {
	guilds      map[string]models.OnboardingGuild
	platform    Platform
	threads     ThreadStarter
	submissions SubmissionStore
	reminders   *ReminderScheduler
	completions *CompletionTracker
	logger      *slog.Logger
}

// NewFlow wires the onboarding workflow.
func NewFlow(
	guilds map[string]models.OnboardingGuild,
	platform Platform,
	threads ThreadStarter,
	submissions SubmissionStore,
	reminders *ReminderScheduler,
	completions *CompletionTracker,
	logger *slog.Logger,
) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		guilds:      guilds,
		platform:    platform,
		threads:     threads,
		submissions: submissions,
		reminders:   reminders,
		completions: completions,
		logger:      logger,
	}
}

// Guild returns the onboarding settings of guildID.
func (f *Flow) Guild(guildID string) (models.OnboardingGuild, bool) {
	g, ok := f.guilds[guildID]
	return g, ok
}

// Start DMs the welcome message and schedules a reminder.
func (f *Flow) Start(guildID, userID string) error {
	g, ok := f.guilds[guildID]
	if !ok {
		return ErrGuildNotConfigured
	}
	name := g.Name
	if name == "" {
		name = "the server"
	}
	if _, err := f.platform.SendDMComplex(userID, WelcomeMessage(name, guildID)); err != nil {
		return fmt.Errorf("failed to send welcome DM to %s: %w", userID, err)
	}
	f.reminders.Schedule(guildID, userID)
	return nil
}

// Submit posts a form publicly and updates completion state.
func (f *Flow) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	var res SubmitResult

	g, ok := f.guilds[sub.GuildID]
	if !ok {
		return res, ErrGuildNotConfigured
	}
	channelID := g.ChannelFor(sub.Form)
	if channelID == "" {
		return res, fmt.Errorf("no channel configured for %s forms in guild %s", sub.Form, sub.GuildID)
	}

	msg, err := f.platform.SendComplex(channelID, SubmissionMessage(sub))
	if err != nil {
		return res, fmt.Errorf("failed to post %s form: %w", sub.Form, err)
	}
	res.Message = msg
	metrics.FormsSubmitted.WithLabelValues(string(sub.Form)).Inc()

	title := submissionTitle(sub)
	body := submissionBody(sub)
	subID, err := f.submissions.InsertSubmission(models.Submission{
		GuildID:   sub.GuildID,
		UserID:    sub.User.ID,
		FormType:  sub.Form,
		ChannelID: channelID,
		MessageID: msg.ID,
		Title:     title,
		Content:   body,
	})
	if err != nil {
		f.logger.Warn("failed to record submission", "user_id", sub.User.ID, "error", err)
	}

	f.completions.Record(sub.User.ID, sub.Form)

	threadMsg := autothread.FromUser(sub.User, sub.Member, sub.GuildID, channelID, f.platform.ChannelName(channelID), msg.ID, title)
	thread, err := f.threads.CreateThreadForMessage(ctx, threadMsg)
	switch {
	case err != nil:
		f.logger.Warn("failed to start discussion thread", "channel_id", channelID, "message_id", msg.ID, "error", err)
	case thread != nil:
		res.Thread = thread
		if err := f.platform.AddThreadMember(thread.ID, sub.User.ID); err != nil {
			f.logger.Warn("failed to add author to thread", "thread_id", thread.ID, "error", err)
		}
		if subID != 0 {
			if err := f.submissions.SetThreadID(subID, thread.ID); err != nil {
				f.logger.Warn("failed to record submission thread", "error", err)
			}
		}
	}

	if !f.completions.IsFullyComplete(sub.User.ID) {
		return res, nil
	}

	if g.CompletionRoleID != "" {
		if err := f.platform.AddRole(sub.GuildID, sub.User.ID, g.CompletionRoleID); err != nil {
			return res, fmt.Errorf("%w: role %s for user %s: %v", ErrRoleNotGranted, g.CompletionRoleID, sub.User.ID, err)
		}
		res.RoleGranted = true
		metrics.RolesGranted.Inc()
	}
	res.Completed = true
	f.reminders.Cancel(sub.GuildID, sub.User.ID)
	f.completions.Clear(sub.User.ID)
	return res, nil
}

// Remaining lists the forms a user still needs for completion.
func (f *Flow) Remaining(userID string) []models.FormType {
	done := f.completions.Completions(userID)
	has := func(t models.FormType) bool { return slices.Contains(done, t) }
	var out []models.FormType
	if !has(models.FormIntro) {
		out = append(out, models.FormIntro)
	}
	if !has(models.FormWorking) && !has(models.FormShowcase) {
		out = append(out, models.FormWorking, models.FormShowcase)
	}
	return out
}
