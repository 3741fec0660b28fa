package onboarding

import (
	"fmt"
	"strings"

	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
)

const (
	buttonPrefix = "onboard"
	modalPrefix  = "onboard_modal"
)

type formField struct {
	id        string
	label     string
	style     discordgo.TextInputStyle
	required  bool
	maxLength int
}

type formDef struct {
	button string
	title  string
	fields []formField
}

var forms = map[models.FormType]formDef{
	models.FormIntro: {
		button: "Introduce yourself",
		title:  "Introduce yourself",
		fields: []formField{
			{id: "name", label: "What should we call you?", style: discordgo.TextInputShort, required: true, maxLength: 80},
			{id: "about", label: "Tell us about yourself", style: discordgo.TextInputParagraph, required: true, maxLength: 1000},
			{id: "links", label: "Links (site, GitHub, socials)", style: discordgo.TextInputShort, maxLength: 300},
		},
	},
	models.FormWorking: {
		button: "What I'm working on",
		title:  "What are you working on?",
		fields: []formField{
			{id: "title", label: "Project name", style: discordgo.TextInputShort, required: true, maxLength: 100},
			{id: "description", label: "What is it and where are you at?", style: discordgo.TextInputParagraph, required: true, maxLength: 1000},
			{id: "link", label: "Link", style: discordgo.TextInputShort, maxLength: 300},
		},
	},
	models.FormShowcase: {
		button: "Showcase a project",
		title:  "Showcase a project",
		fields: []formField{
			{id: "title", label: "Project name", style: discordgo.TextInputShort, required: true, maxLength: 100},
			{id: "description", label: "What did you build?", style: discordgo.TextInputParagraph, required: true, maxLength: 1000},
			{id: "link", label: "Link", style: discordgo.TextInputShort, maxLength: 300},
		},
	},
}

// ButtonID encodes the custom id of the button that opens a form.
func ButtonID(form models.FormType, guildID string) string {
	return buttonPrefix + ":" + string(form) + ":" + guildID
}

// ModalID encodes the custom id of a form modal.
func ModalID(form models.FormType, guildID string) string {
	return modalPrefix + ":" + string(form) + ":" + guildID
}

// ParseButtonID decodes a ButtonID.
func ParseButtonID(customID string) (models.FormType, string, bool) {
	return parseID(buttonPrefix, customID)
}

// ParseModalID decodes a ModalID.
func ParseModalID(customID string) (models.FormType, string, bool) {
	return parseID(modalPrefix, customID)
}

func parseID(prefix, customID string) (models.FormType, string, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != prefix || parts[2] == "" {
		return "", "", false
	}
	form, err := models.ParseFormType(parts[1])
	if err != nil {
		return "", "", false
	}
	return form, parts[2], true
}

// WelcomeMessage is the DM that starts the flow.
func WelcomeMessage(guildName, guildID string) *discordgo.MessageSend {
	buttons := make([]discordgo.MessageComponent, 0, len(models.FormTypes))
	for _, form := range models.FormTypes {
		style := discordgo.SecondaryButton
		if form == models.FormIntro {
			style = discordgo.PrimaryButton
		}
		buttons = append(buttons, discordgo.Button{
			Label:    forms[form].button,
			Style:    style,
			CustomID: ButtonID(form, guildID),
		})
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("👋 Welcome to **%s**!\n\n"+
			"Start by introducing yourself, then tell us what you're working on or show off something you built. "+
			"Once you've done both you'll get full access to the server.", guildName),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	}
}

// ReminderText is the nudge sent to users who haven't finished.
func ReminderText() string {
	return "⏰ Just a reminder: you haven't finished introducing yourself yet. " +
		"Use the buttons in the message above to share your intro and a project. " +
		"If the buttons stopped working, ask a moderator to run `/ping-intro` for you."
}

// Modal returns the interaction response that opens the form.
func Modal(form models.FormType, guildID string) *discordgo.InteractionResponse {
	def := forms[form]
	rows := make([]discordgo.MessageComponent, 0, len(def.fields))
	for _, f := range def.fields {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  f.id,
				Label:     f.label,
				Style:     f.style,
				Required:  f.required,
				MaxLength: f.maxLength,
			},
		}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   ModalID(form, guildID),
			Title:      def.title,
			Components: rows,
		},
	}
}

// ModalValues flattens submitted text inputs into id -> value.
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch input := ic.(type) {
			case *discordgo.TextInput:
				values[input.CustomID] = strings.TrimSpace(input.Value)
			case discordgo.TextInput:
				values[input.CustomID] = strings.TrimSpace(input.Value)
			}
		}
	}
	return values
}

// submissionTitle is the headline used for the post and its thread.
func submissionTitle(sub Submission) string {
	switch sub.Form {
	case models.FormIntro:
		if name := sub.Values["name"]; name != "" {
			return "Say hi to " + name
		}
		return "Say hi to " + sub.User.Username
	default:
		return sub.Values["title"]
	}
}

func submissionBody(sub Submission) string {
	if sub.Form == models.FormIntro {
		return sub.Values["about"]
	}
	return sub.Values["description"]
}

// SubmissionMessage renders the public post for a submitted form.
func SubmissionMessage(sub Submission) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       submissionTitle(sub),
		Description: submissionBody(sub),
		Color:       formColor(sub.Form),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    sub.User.Username,
			IconURL: sub.User.AvatarURL(""),
		},
	}
	link := sub.Values["link"]
	if sub.Form == models.FormIntro {
		link = sub.Values["links"]
	}
	if link != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Links", Value: link})
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", sub.User.ID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{sub.User.ID},
		},
	}
}

func formColor(form models.FormType) int {
	switch form {
	case models.FormIntro:
		return 0x5865f2
	case models.FormWorking:
		return 0xfee75c
	default:
		return 0x57f287
	}
}
