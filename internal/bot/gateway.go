package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/config"
	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/repository"
	"github.com/BartuV/telsiz/internal/service"
)

// Bot is the Discord gateway adapter. It implements
// service.ChatPlatform and owns the /setup slash command.
type Bot struct {
	session  *discordgo.Session
	tokens   *service.TokenService
	channels repository.ChannelRepository
	appID    string
	logger   *zap.Logger
	ready    atomic.Bool
}

// New builds the bot without connecting.
func New(cfg config.DiscordConfig, tokens *service.TokenService, channels repository.ChannelRepository, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:  session,
		tokens:   tokens,
		channels: channels,
		appID:    cfg.ApplicationID,
		logger:   logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	return b.session.Open()
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	b.ready.Store(false)
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord gateway ready",
		zap.String("user", r.User.Username+"#"+r.User.Discriminator))

	if _, err := s.ApplicationCommandBulkOverwrite(b.appID, "", []*discordgo.ApplicationCommand{setupCommand()}); err != nil {
		b.logger.Error("registering application commands failed", zap.Error(err))
	} else {
		b.logger.Info("registered application commands")
	}
	b.ready.Store(true)
}

// Ready reports whether the gateway connection is established.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// MoveUserToVoiceChannel moves a guild member into the given voice
// channel. The target must be a voice channel.
func (b *Bot) MoveUserToVoiceChannel(ctx context.Context, discordUserID, channelID, guildID string) error {
	channel, err := b.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if channel.Type != discordgo.ChannelTypeGuildVoice {
		return fmt.Errorf("channel %s is not a voice channel", channelID)
	}
	return b.session.GuildMemberMove(guildID, discordUserID, &channelID, discordgo.WithContext(ctx))
}

// GuildRoles returns the member's roles with name and hex color.
func (b *Bot) GuildRoles(ctx context.Context, discordUserID, guildID string) ([]domain.Role, error) {
	member, err := b.session.GuildMember(guildID, discordUserID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", discordUserID, err)
	}

	guildRoles, err := b.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch roles for guild %s: %w", guildID, err)
	}

	byID := make(map[string]*discordgo.Role, len(guildRoles))
	for _, role := range guildRoles {
		byID[role.ID] = role
	}

	roles := make([]domain.Role, 0, len(member.Roles))
	for _, roleID := range member.Roles {
		role, ok := byID[roleID]
		if !ok {
			continue
		}
		roles = append(roles, domain.Role{
			ID:    role.ID,
			Name:  role.Name,
			Color: fmt.Sprintf("#%06x", role.Color),
		})
	}
	return roles, nil
}

// Disabled is the ChatPlatform used when no bot token is configured;
// gateway-backed endpoints answer 503 through the Ready check.
type Disabled struct{}

func (Disabled) Ready() bool { return false }

func (Disabled) MoveUserToVoiceChannel(context.Context, string, string, string) error {
	return fmt.Errorf("discord gateway disabled")
}

func (Disabled) GuildRoles(context.Context, string, string) ([]domain.Role, error) {
	return nil, fmt.Errorf("discord gateway disabled")
}
