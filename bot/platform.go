package bot

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"intro-bot/models"

	"github.com/bwmarrin/discordgo"
)

// Platform adapts a discordgo session to the narrow interfaces the thread
// engine, the onboarding flow and the admin reporter depend on.
type Platform struct {
	session *discordgo.Session
}

// NewPlatform wraps s.
func NewPlatform(s *discordgo.Session) *Platform {
	return &Platform{session: s}
}

func (p *Platform) UserChannelPermissions(userID, channelID string) (int64, error) {
	return p.session.UserChannelPermissions(userID, channelID)
}

// queued marks calls that run on the task queue. They return 429s as errors
// so the queue can back off instead of blocking its worker in discordgo.
var queued = discordgo.WithRetryOnRatelimit(false)

func (p *Platform) StartThread(channelID, messageID, name string, archive models.ArchiveDuration) (*discordgo.Channel, error) {
	return p.session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: int(archive),
	}, queued)
}

func (p *Platform) RenameThread(threadID, name string) (*discordgo.Channel, error) {
	return p.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Name: name}, queued)
}

func (p *Platform) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return p.session.ChannelMessageSend(channelID, content, queued)
}

func (p *Platform) GuildOwnerID(guildID string) (string, error) {
	if g, err := p.session.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID, nil
	}
	g, err := p.session.Guild(guildID)
	if err != nil {
		return "", err
	}
	return g.OwnerID, nil
}

func (p *Platform) SendDM(userID, content string) error {
	_, err := p.SendDMComplex(userID, &discordgo.MessageSend{Content: content})
	return err
}

func (p *Platform) SendDMComplex(userID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	ch, err := p.session.UserChannelCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open DM channel: %w", err)
	}
	return p.session.ChannelMessageSendComplex(ch.ID, data)
}

func (p *Platform) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return p.session.ChannelMessageSendComplex(channelID, data)
}

// ChannelName resolves a channel name from the state cache, falling back to
// the API. It returns an empty string when the channel can't be found.
func (p *Platform) ChannelName(channelID string) string {
	if ch, err := p.session.State.Channel(channelID); err == nil {
		return ch.Name
	}
	ch, err := p.session.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}

func (p *Platform) AddRole(guildID, userID, roleID string) error {
	return p.session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (p *Platform) AddThreadMember(threadID, userID string) error {
	return p.session.ThreadMemberAdd(threadID, userID)
}

func (p *Platform) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := p.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// ClearBotDMs deletes up to 100 recent messages the bot sent in its DM
// channel with userID and returns how many were removed.
func (p *Platform) ClearBotDMs(userID string) (int, error) {
	ch, err := p.session.UserChannelCreate(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to open DM channel: %w", err)
	}
	msgs, err := p.session.ChannelMessages(ch.ID, 100, "", "", "")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch DM history: %w", err)
	}
	deleted := 0
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != p.session.State.User.ID {
			continue
		}
		if err := p.session.ChannelMessageDelete(ch.ID, m.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete message %s: %w", m.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// DiscordRateLimit classifies errors returned by discordgo for requests made
// with automatic rate-limit retries disabled.
func DiscordRateLimit(err error) (time.Duration, bool) {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		if rl.RateLimit != nil && rl.RateLimit.TooManyRequests != nil {
			return rl.RateLimit.TooManyRequests.RetryAfter, true
		}
		return 0, true
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusTooManyRequests {
		return retryAfterHeader(rest.Response.Header), true
	}
	return 0, false
}

func retryAfterHeader(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
