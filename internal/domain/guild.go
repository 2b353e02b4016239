package domain

import "time"

// GuildCredential is the stored registration for one guild. The raw
// server secret is never persisted; only its bcrypt hash is kept, and
// that hash doubles as the HMAC signing key for the guild's session
// tokens.
type GuildCredential struct {
	GuildID    string
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Channel is a voice channel registered for a guild via the setup
// command.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GuildID string `json:"guild_id"`
}
