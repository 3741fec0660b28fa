package autothread

import "github.com/bwmarrin/discordgo"

// FromDiscord converts a gateway message. ch may be nil when the channel is
// not cached; the message is then assumed not to be inside a thread.
func FromDiscord(m *discordgo.Message, ch *discordgo.Channel) Message {
	msg := Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		System:    m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply,
	}
	if ch != nil {
		msg.ChannelName = ch.Name
		msg.InThread = ch.IsThread()
		if msg.GuildID == "" {
			msg.GuildID = ch.GuildID
		}
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorUsername = m.Author.Username
		msg.AuthorBot = m.Author.Bot
		msg.AuthorTag = userTag(m.Author)
		msg.AuthorDisplayName = displayName(m.Author, m.Member)
	}
	return msg
}

// FromUser builds a message authored by u, used when the bot posts on a user's behalf.
func FromUser(u *discordgo.User, member *discordgo.Member, guildID, channelID, channelName, messageID, content string) Message {
	return Message{
		ID:                messageID,
		GuildID:           guildID,
		ChannelID:         channelID,
		ChannelName:       channelName,
		Content:           content,
		AuthorID:          u.ID,
		AuthorUsername:    u.Username,
		AuthorTag:         userTag(u),
		AuthorDisplayName: displayName(u, member),
	}
}

func userTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func displayName(u *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
