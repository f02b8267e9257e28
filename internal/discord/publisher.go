// Package discord publishes notifications through the Discord REST
// API. The session is rest-only; no gateway connection is opened.
package discord

import (
	"context"
	"fmt"

	"github.com/Issier/lad-watch/internal/tracker"
	"github.com/bwmarrin/discordgo"
)

// Post-game threads auto-archive after a day.
const threadAutoArchiveMinutes = 1440

// Publisher sends messages to a single announcement channel.
type Publisher struct {
	session   *discordgo.Session
	channelID string
}

// NewPublisher creates a Publisher for the given channel.
func NewPublisher(token, channelID string) (*Publisher, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &Publisher{session: session, channelID: channelID}, nil
}

// PublishLiveAlert sends one message with an embed per alert and
// returns the message id.
func (p *Publisher) PublishLiveAlert(ctx context.Context, alerts []tracker.LiveAlert) (string, error) {
	embeds := make([]*discordgo.MessageEmbed, 0, len(alerts))
	for _, alert := range alerts {
		embeds = append(embeds, LiveAlertEmbed(alert))
	}

	message, err := p.session.ChannelMessageSendComplex(p.channelID, &discordgo.MessageSend{
		Embeds: embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send live alert: %w", err)
	}
	return message.ID, nil
}

// EnsureThread returns the id of the thread under the given message,
// creating it if it does not exist yet.
func (p *Publisher) EnsureThread(ctx context.Context, messageID, name string) (string, error) {
	message, err := p.session.ChannelMessage(p.channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch alert message: %w", err)
	}
	if message.Thread != nil {
		return message.Thread.ID, nil
	}

	thread, err := p.session.MessageThreadStartComplex(p.channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to start thread: %w", err)
	}
	return thread.ID, nil
}

// PublishPostGame sends a post-game update into a thread.
func (p *Publisher) PublishPostGame(ctx context.Context, threadID string, update tracker.PostGameUpdate) error {
	_, err := p.session.ChannelMessageSendEmbed(threadID, PostGameEmbed(update), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send post game update: %w", err)
	}
	return nil
}

// PublishStandalone sends a post-game update directly to the channel,
// used when the live alert never published and there is no message to
// thread under.
func (p *Publisher) PublishStandalone(ctx context.Context, update tracker.PostGameUpdate) error {
	_, err := p.session.ChannelMessageSendEmbed(p.channelID, PostGameEmbed(update), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send standalone update: %w", err)
	}
	return nil
}
