package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type discordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	Session   discordSession
	ChannelID string
}

// NewDiscord creates a REST-only session; no gateway connection is opened.
func NewDiscord(token, channelID string) (*Discord, error) {
	if channelID == "" {
		return nil, fmt.Errorf("discord channel ID is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &Discord{Session: s, ChannelID: channelID}, nil
}

func (d *Discord) Name() string {
	return "discord"
}

func (d *Discord) Send(ctx context.Context, text string) error {
	_, err := d.Session.ChannelMessageSend(d.ChannelID, text, discordgo.WithContext(ctx))
	return err
}
