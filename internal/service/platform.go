package service

import (
	"context"

	"github.com/BartuV/telsiz/internal/domain"
)

// ChatPlatform is the gateway collaborator that performs the
// privileged actions once a request is authorized. Implemented by the
// Discord bot; handlers check Ready before delegating.
type ChatPlatform interface {
	Ready() bool
	MoveUserToVoiceChannel(ctx context.Context, discordUserID, channelID, guildID string) error
	GuildRoles(ctx context.Context, discordUserID, guildID string) ([]domain.Role, error)
}
