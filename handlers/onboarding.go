package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"intro-bot/models"
	"intro-bot/onboarding"

	"github.com/bwmarrin/discordgo"
)

const submitTimeout = 2 * time.Minute

// HandleButton opens the form behind an onboarding button.
func (h *Handler) HandleButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	form, guildID, ok := onboarding.ParseButtonID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	if err := s.InteractionRespond(i.Interaction, onboarding.Modal(form, guildID)); err != nil {
		h.logger.Warn("failed to open form", "form", form, "guild_id", guildID, "error", err)
	}
}

// HandleModalSubmit posts a submitted onboarding form.
func (h *Handler) HandleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	form, guildID, ok := onboarding.ParseModalID(data.CustomID)
	if !ok {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}
	if err := deferEphemeral(s, i); err != nil {
		h.logger.Warn("failed to defer form response", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	res, err := h.bot.Flow.Submit(ctx, onboarding.Submission{
		GuildID: guildID,
		User:    user,
		Member:  h.member(s, guildID, user.ID, i.Member),
		Form:    form,
		Values:  onboarding.ModalValues(data),
	})
	if err != nil {
		h.bot.Reporter.Error("onboarding", "submit "+string(form), fmt.Sprintf("User <@%s> in guild %s: %v", user.ID, guildID, err))
	} else if res.Completed {
		if err := h.bot.Submissions.IncrementCompletions(guildID, time.Now()); err != nil {
			h.logger.Warn("failed to record completion", "guild_id", guildID, "error", err)
		}
	}
	reply := submitReply(form, res, err, h.bot.Flow.Remaining(user.ID))
	if err := editResponse(s, i, reply); err != nil {
		h.logger.Warn("failed to edit form response", "error", err)
	}
}

// member resolves the guild member for display names. Modal submits from DMs
// carry no member.
func (h *Handler) member(s *discordgo.Session, guildID, userID string, fromInteraction *discordgo.Member) *discordgo.Member {
	if fromInteraction != nil {
		return fromInteraction
	}
	if m, err := s.State.Member(guildID, userID); err == nil {
		return m
	}
	m, err := s.GuildMember(guildID, userID)
	if err != nil {
		h.logger.Debug("could not fetch guild member", "guild_id", guildID, "user_id", userID, "error", err)
		return nil
	}
	return m
}

func submitReply(form models.FormType, res onboarding.SubmitResult, err error, remaining []models.FormType) string {
	if err != nil && !errors.Is(err, onboarding.ErrRoleNotGranted) {
		return "Sorry, I couldn't post that. Please contact a moderator."
	}

	var b strings.Builder
	b.WriteString("✅ Thanks! Your " + formLabel(form) + " has been posted")
	if res.Message != nil {
		fmt.Fprintf(&b, " in <#%s>", res.Message.ChannelID)
	}
	b.WriteString(".")
	if res.Thread != nil {
		fmt.Fprintf(&b, " Replies will show up in <#%s>.", res.Thread.ID)
	}

	switch {
	case err != nil:
		b.WriteString("\n⚠️ You've finished every form, but I couldn't give you the member role. Please contact a moderator.")
	case res.RoleGranted:
		b.WriteString("\n🎉 You're all set, enjoy the server!")
	case res.Completed:
		b.WriteString("\n🎉 You're all set!")
	case slices.Contains(remaining, models.FormIntro) && slices.Contains(remaining, models.FormWorking):
		b.WriteString("\nNext: introduce yourself and share a project.")
	case slices.Contains(remaining, models.FormIntro):
		b.WriteString("\nNext: introduce yourself.")
	case len(remaining) > 0:
		b.WriteString("\nNext: tell us what you're working on or showcase a project.")
	}
	return b.String()
}

func formLabel(form models.FormType) string {
	switch form {
	case models.FormIntro:
		return "introduction"
	case models.FormWorking:
		return "project update"
	default:
		return "showcase"
	}
}
