package dto

import (
	"time"

	"github.com/BartuV/telsiz/internal/domain"
)

// SessionResponse is returned by GET /auth/:gid.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MoveResponse is returned by GET /to/:uid/:cid/:gid.
type MoveResponse struct {
	DiscordUserID string `json:"discord_user_id"`
	ChannelID     string `json:"channel_id"`
	GuildID       string `json:"guild_id"`
}

// RolesResponse is returned by GET /getRole/:uid/:gid.
type RolesResponse struct {
	DiscordUserID string        `json:"discord_user_id"`
	Roles         []domain.Role `json:"roles"`
}

// ChannelsResponse is returned by GET /getChannels/:gid.
type ChannelsResponse struct {
	GuildID  string           `json:"guild_id"`
	Channels []domain.Channel `json:"channels"`
}
