package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/events"
)

// MappingStore is the slice of CredentialStore the resolver needs.
type MappingStore interface {
	GetIdentityMapping(ctx context.Context, externalUserID string) (string, error)
	SetIdentityMapping(ctx context.Context, externalUserID, discordUserID string) error
}

// LookupAPI is the external identity-mapping API.
type LookupAPI interface {
	RobloxToDiscord(ctx context.Context, guildID, externalUserID, credential string) ([]string, error)
}

// Resolver maps an external platform user id to a Discord user id.
// The mapping store is consulted first; only a miss triggers the
// external call, and a successful lookup is persisted best-effort.
type Resolver struct {
	store      MappingStore
	api        LookupAPI
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewResolver builds the resolver. A nil dispatcher disables the audit
// events.
func NewResolver(store MappingStore, api LookupAPI, dispatcher events.Dispatcher, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, api: api, dispatcher: dispatcher, logger: logger}
}

// Resolve returns the Discord id for an external user id. Returns
// domain.ErrNotFound when no link exists and ErrLookupFailed when the
// external API is unreachable on a store miss.
func (r *Resolver) Resolve(ctx context.Context, externalUserID, guildID, credential string) (string, error) {
	discordID, err := r.store.GetIdentityMapping(ctx, externalUserID)
	if err == nil {
		r.publishResolved(ctx, guildID, externalUserID, discordID, true)
		return discordID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		// Storage degraded; the external API can still answer.
		r.logger.Warn("identity mapping read failed",
			zap.String("external_user_id", externalUserID), zap.Error(err))
	}

	ids, err := r.api.RobloxToDiscord(ctx, guildID, externalUserID, credential)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", domain.ErrNotFound
	}
	if len(ids) > 1 {
		// Documented first-match policy; no disambiguation.
		r.logger.Warn("external user has more than one linked discord account",
			zap.String("external_user_id", externalUserID), zap.Int("matches", len(ids)))
	}
	discordID = ids[0]

	if err := r.store.SetIdentityMapping(ctx, externalUserID, discordID); err != nil {
		r.logger.Error("persisting identity mapping failed",
			zap.String("external_user_id", externalUserID), zap.Error(err))
	}
	r.publishResolved(ctx, guildID, externalUserID, discordID, false)
	return discordID, nil
}

func (r *Resolver) publishResolved(ctx context.Context, guildID, externalUserID, discordID string, fromCache bool) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIdentityResolved,
		GuildID:   guildID,
		Timestamp: time.Now(),
		Payload: events.IdentityResolvedPayload{
			ExternalUserID: externalUserID,
			DiscordUserID:  discordID,
			FromCache:      fromCache,
		},
	})
}
