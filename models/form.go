package models

import (
	"fmt"
	"time"
)

// FormType identifies one of the onboarding modal forms.
type FormType string

const (
	FormIntro    FormType = "intro"
	FormWorking  FormType = "working"
	FormShowcase FormType = "showcase"
)

// FormTypes lists the forms in the order they are offered.
var FormTypes = []FormType{FormIntro, FormWorking, FormShowcase}

// ParseFormType validates a form type string.
func ParseFormType(s string) (FormType, error) {
	switch FormType(s) {
	case FormIntro, FormWorking, FormShowcase:
		return FormType(s), nil
	}
	return "", fmt.Errorf("unknown form type %q", s)
}

// ReminderType identifies what a reminder nudges the user about.
type ReminderType string

const ReminderIntro ReminderType = "intro"

// Reminder is a pending or delivered nudge for a user who started onboarding.
type Reminder struct {
	GuildID      string
	UserID       string
	ReminderType ReminderType
	ScheduledFor time.Time
	Sent         bool
}

// CompletionRecord tracks which forms a user has submitted.
type CompletionRecord struct {
	Completions map[FormType]struct{}
	Timestamp   time.Time
}

// Submission is a single posted modal form.
type Submission struct {
	ID        int64
	GuildID   string
	UserID    string
	FormType  FormType
	ChannelID string
	MessageID string
	ThreadID  string
	Title     string
	Content   string
	Timestamp int64
}

// MemberStats are one guild's onboarding counters for one day.
type MemberStats struct {
	GuildID     string
	Date        string // 2006-01-02
	Joins       int
	Leaves      int
	Completions int
}
