package events

import "time"

// EventType enumerates supported audit event identifiers.
type EventType string

const (
	EventCredentialCreated EventType = "credential_created"
	EventCredentialReset   EventType = "credential_reset"
	EventSessionIssued     EventType = "session_issued"
	EventIdentityResolved  EventType = "identity_resolved"
)

// Event is an audit record emitted by the token and identity services.
// Payloads carry identifiers only, never secrets or tokens.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionIssuedPayload payload.
type SessionIssuedPayload struct {
	IP        string    `json:"ip"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityResolvedPayload payload.
type IdentityResolvedPayload struct {
	ExternalUserID string `json:"external_user_id"`
	DiscordUserID  string `json:"discord_user_id"`
	FromCache      bool   `json:"from_cache"`
}
