package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/pkg/util"
)

const commandTimeout = 10 * time.Second

func setupCommand() *discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	return &discordgo.ApplicationCommand{
		Name:                     "setup",
		Description:              "For radio setups",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel",
				Description: "Editing channels for roblox",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel to add",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
						Required:     true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "method",
						Description: "Add or Remove channel",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Add", Value: "add"},
							{Name: "Remove", Value: "remove"},
						},
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "token",
				Description: "Token utils for roblox",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "method",
						Description: "Create or Reset the server token",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Create", Value: "create"},
							{Name: "Reset", Value: "reset"},
						},
					},
				},
			},
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "setup" || i.GuildID == "" || len(data.Options) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sub := data.Options[0]
	var reply string
	switch sub.Name {
	case "token":
		reply = b.handleTokenCommand(ctx, s, i, sub)
	case "channel":
		reply = b.handleChannelCommand(ctx, s, sub, i.GuildID)
	default:
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		b.logger.Error("interaction response failed", zap.Error(err))
	}
}

// handleTokenCommand creates or resets the guild's server secret. The
// raw secret is DMed to the invoker; it is shown exactly once.
func (b *Bot) handleTokenCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	method := subOptionString(sub, "method")

	var secret string
	var err error
	switch method {
	case "create":
		secret, err = b.tokens.CreateServerCredential(ctx, i.GuildID)
	case "reset":
		secret, err = b.tokens.ResetServerCredential(ctx, i.GuildID)
	default:
		return "unknown method"
	}
	if err != nil {
		var domainErr *util.DomainError
		if errors.As(err, &domainErr) {
			switch domainErr.Code {
			case util.CodeAlreadyRegistered:
				return "You already have a token. If you want to see it again, reset it."
			case util.CodeNotRegistered:
				return "You need to create a token before resetting it."
			}
		}
		b.logger.Error("token command failed",
			zap.String("guild_id", i.GuildID), zap.String("method", method), zap.Error(err))
		return "Something went wrong, try again later."
	}

	userID := i.Member.User.ID
	dm, err := s.UserChannelCreate(userID)
	if err != nil {
		b.logger.Error("opening dm channel failed", zap.String("user_id", userID), zap.Error(err))
		return "Couldn't open a DM to send your token. Enable DMs and reset the token."
	}
	msg := fmt.Sprintf("Your server token is: `%s`. Note this down because you can't see it again.", secret)
	if _, err := s.ChannelMessageSend(dm.ID, msg); err != nil {
		b.logger.Error("sending token dm failed", zap.String("user_id", userID), zap.Error(err))
		return "Couldn't DM your token. Enable DMs and reset the token."
	}
	return "Done. Check your DMs for the token."
}

func (b *Bot) handleChannelCommand(ctx context.Context, s *discordgo.Session, sub *discordgo.ApplicationCommandInteractionDataOption, guildID string) string {
	var channel *discordgo.Channel
	method := ""
	for _, opt := range sub.Options {
		switch opt.Name {
		case "channel":
			channel = opt.ChannelValue(s)
		case "method":
			method = opt.StringValue()
		}
	}
	if channel == nil {
		return "channel option is required"
	}

	switch method {
	case "add":
		err := b.channels.Add(ctx, &domain.Channel{ID: channel.ID, Name: channel.Name, GuildID: guildID})
		if errors.Is(err, domain.ErrNotRegistered) {
			return "Please first set up your server with /setup token create."
		}
		if err != nil {
			b.logger.Error("adding channel failed", zap.String("channel_id", channel.ID), zap.Error(err))
			return "Something went wrong, try again later."
		}
		return fmt.Sprintf("Channel added successfully: %s", channel.Name)
	case "remove":
		if err := b.channels.Remove(ctx, channel.ID); err != nil {
			b.logger.Error("removing channel failed", zap.String("channel_id", channel.ID), zap.Error(err))
			return "Something went wrong, try again later."
		}
		return fmt.Sprintf("Channel removed successfully: %s", channel.Name)
	default:
		return "unknown method"
	}
}

func subOptionString(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
