package domain

import "time"

// IdentityMapping links a Roblox user id to a Discord user id. Created
// lazily on first successful resolution and never updated afterwards;
// stale links self-heal only through cache expiry.
type IdentityMapping struct {
	ExternalUserID string
	DiscordUserID  string
	CreatedAt      time.Time
}

// Role is a guild role as reported by the chat platform.
type Role struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
