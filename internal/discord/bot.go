// Package discord connects the command dispatcher and the scheduled
// posts to a Discord bot session.
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/biferdou/grallix/internal/command"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
	"github.com/biferdou/grallix/internal/schedule"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers

// Bot owns the gateway session.
type Bot struct {
	session *discordgo.Session
	guildID string
	logger  *log.Logger

	mu         sync.RWMutex
	ctx        context.Context
	dispatcher *command.Dispatcher
	windows    *schedule.Windows
}

// New creates a session for token. Nothing connects until Open.
func New(token, guildID string, logger *log.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = intents

	b := &Bot{session: s, guildID: guildID, logger: logger, ctx: context.Background()}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	s.AddHandler(b.onMessage)
	return b, nil
}

// Attach sets the components events are routed to. It must be called
// before Open.
func (b *Bot) Attach(d *command.Dispatcher, w *schedule.Windows) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatcher = d
	b.windows = w
}

// Open connects to the gateway and registers the slash commands.
// Handlers run with ctx.
func (b *Bot) Open(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}

	appID := b.session.State.User.ID
	_, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, applicationCommands(), discordgo.WithContext(ctx))
	if err != nil {
		b.session.Close()
		return fmt.Errorf("registering commands: %w", err)
	}
	b.logger.Printf("registered %d application commands", len(command.Definitions))
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Printf("logged in as %s", r.User.String())
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	req, ok := toRequest(i)
	if !ok {
		return
	}

	b.mu.RLock()
	ctx, d := b.ctx, b.dispatcher
	b.mu.RUnlock()
	if d == nil {
		return
	}

	if ch, err := s.State.Channel(i.ChannelID); err == nil {
		req.ChannelName = ch.Name
	}

	resp := d.Handle(ctx, req)
	if err := s.InteractionRespond(i.Interaction, toResponse(resp), discordgo.WithContext(ctx)); err != nil {
		b.logger.Printf("responding to /%s: %v", req.Command, err)
	}
}

func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.MessageReference == nil {
		return
	}

	b.mu.RLock()
	w := b.windows
	b.mu.RUnlock()
	if w == nil {
		return
	}

	w.Collect(schedule.Reply{
		PromptID:  m.MessageReference.MessageID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	})
}

// Username resolves a user's name, preferring the state cache.
func (b *Bot) Username(ctx context.Context, userID string) (string, error) {
	if b.guildID != "" {
		if m, err := b.session.State.Member(b.guildID, userID); err == nil && m.User != nil {
			return m.User.Username, nil
		}
	}
	u, err := b.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return u.Username, nil
}

// PostStandupPrompt sends the daily standup prompt to channelID.
func (b *Bot) PostStandupPrompt(ctx context.Context, channelID string) (string, error) {
	msg, err := b.session.ChannelMessageSendEmbed(channelID, toEmbed(command.StandupPromptEmbed()), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("sending standup prompt: %w", err)
	}
	return msg.ID, nil
}

// PostStandupSummary sends the collected responses of st.
func (b *Bot) PostStandupSummary(ctx context.Context, st model.Standup) error {
	_, err := b.session.ChannelMessageSendEmbed(st.ChannelID, toEmbed(command.StandupSummaryEmbed(st)), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending standup summary: %w", err)
	}
	return nil
}

// PostWeeklySummary sends a channel's weekly progress summary.
func (b *Bot) PostWeeklySummary(ctx context.Context, s report.ChannelSummary) error {
	embed := command.WeeklySummaryEmbed(ctx, s, b, b.logger)
	if _, err := b.session.ChannelMessageSendEmbed(s.ChannelID, toEmbed(embed), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending weekly summary: %w", err)
	}
	return nil
}
