package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/sprout/internal/care"
)

const (
	discordMaxChunk = 2000
	discordHistory  = 100
)

// Discord talks to one user over bot DMs using the REST API only.
type Discord struct {
	session *discordgo.Session
	userID  string
	channel string
	loc     *time.Location
}

func NewDiscord(token, userID string) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	return &Discord{session: s, userID: userID, loc: time.Local}, nil
}

func (d *Discord) dmChannel(ctx context.Context) (string, error) {
	if d.channel != "" {
		return d.channel, nil
	}
	ch, err := d.session.UserChannelCreate(d.userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("opening DM channel: %w", err)
	}
	d.channel = ch.ID
	return d.channel, nil
}

func (d *Discord) Send(ctx context.Context, text string) error {
	channel, err := d.dmChannel(ctx)
	if err != nil {
		return err
	}
	for i, chunk := range Split(text, discordMaxChunk) {
		if _, err := d.session.ChannelMessageSend(channel, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord send chunk %d: %w", i+1, err)
		}
	}
	return nil
}

func (d *Discord) Recent(ctx context.Context, since time.Time) ([]care.InboundMessage, error) {
	channel, err := d.dmChannel(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := d.session.ChannelMessages(channel, discordHistory, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("reading DM history: %w", err)
	}
	return userMessages(msgs, d.userID, since, d.loc), nil
}

// userMessages keeps userID's messages newer than since. Discord returns
// newest first; the result is oldest first.
func userMessages(msgs []*discordgo.Message, userID string, since time.Time, loc *time.Location) []care.InboundMessage {
	var out []care.InboundMessage
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Author == nil || m.Author.ID != userID || m.Content == "" {
			continue
		}
		if !m.Timestamp.After(since) {
			continue
		}
		out = append(out, inbound(m.Content, m.Timestamp, loc, m.Author.Username))
	}
	return out
}
