package onboarding

import (
	"testing"

	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomIDs(t *testing.T) {
	form, guildID, ok := ParseButtonID(ButtonID(models.FormWorking, "123"))
	require.True(t, ok)
	assert.Equal(t, models.FormWorking, form)
	assert.Equal(t, "123", guildID)

	form, guildID, ok = ParseModalID(ModalID(models.FormShowcase, "456"))
	require.True(t, ok)
	assert.Equal(t, models.FormShowcase, form)
	assert.Equal(t, "456", guildID)

	for _, bad := range []string{"", "onboard", "onboard:intro", "onboard:bogus:1", "onboard:intro:", "other:intro:1"} {
		_, _, ok := ParseButtonID(bad)
		assert.False(t, ok, bad)
	}
	// button and modal ids don't cross-parse
	_, _, ok = ParseModalID(ButtonID(models.FormIntro, "1"))
	assert.False(t, ok)
}

func TestWelcomeMessageOffersEveryForm(t *testing.T) {
	msg := WelcomeMessage("Gophers", "g1")
	assert.Contains(t, msg.Content, "Gophers")
	require.Len(t, msg.Components, 1)

	row := msg.Components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, len(models.FormTypes))
	for i, form := range models.FormTypes {
		assert.Equal(t, ButtonID(form, "g1"), row.Components[i].(discordgo.Button).CustomID)
	}
}

func TestModalAndValues(t *testing.T) {
	resp := Modal(models.FormIntro, "g1")
	assert.Equal(t, discordgo.InteractionResponseModal, resp.Type)
	assert.Equal(t, ModalID(models.FormIntro, "g1"), resp.Data.CustomID)
	assert.Len(t, resp.Data.Components, 3)

	data := discordgo.ModalSubmitInteractionData{
		CustomID: resp.Data.CustomID,
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "name", Value: "  Sam "},
			}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "about", Value: "Gopher"},
			}},
		},
	}
	assert.Equal(t, map[string]string{"name": "Sam", "about": "Gopher"}, ModalValues(data))
}
