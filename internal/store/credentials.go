package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/repository"
)

// Cache key prefixes and TTLs. Identity mappings cached after a
// durable write live longer than read-populated ones; both bounds are
// the only freshness mechanism for mappings (no invalidation path).
const (
	guildKeyPrefix   = "servers:"
	mappingKeyPrefix = "discordID:"

	guildSecretTTL  = time.Hour
	mappingReadTTL  = time.Hour
	mappingWriteTTL = 24 * time.Hour
)

// CredentialStore layers the volatile cache over the durable
// credential repository. Reads are cache-first with repopulation on a
// durable hit; cache faults degrade to the durable store and are only
// logged. Durable faults surface as StorageError.
type CredentialStore struct {
	repo   repository.CredentialRepository
	cache  Cache
	logger *zap.Logger
}

// NewCredentialStore builds the store.
func NewCredentialStore(repo repository.CredentialRepository, cache Cache, logger *zap.Logger) *CredentialStore {
	return &CredentialStore{repo: repo, cache: cache, logger: logger}
}

// CreateGuildCredential stores a new guild's secret hash. Fails with
// domain.ErrAlreadyRegistered on a duplicate guild.
func (s *CredentialStore) CreateGuildCredential(ctx context.Context, guildID, secretHash string) error {
	if err := s.repo.CreateGuild(ctx, guildID, secretHash); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return err
		}
		return domain.NewStorageError("create guild credential", err)
	}
	s.cacheSet(ctx, guildKeyPrefix+guildID, secretHash, guildSecretTTL)
	return nil
}

// GetGuildCredential returns the stored secret hash, consulting the
// cache first and repopulating it on a durable hit.
func (s *CredentialStore) GetGuildCredential(ctx context.Context, guildID string) (string, error) {
	key := guildKeyPrefix + guildID
	if hash, ok := s.cacheGet(ctx, key); ok {
		return hash, nil
	}

	hash, err := s.repo.GetGuildSecretHash(ctx, guildID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", domain.NewStorageError("get guild credential", err)
	}

	s.cacheSet(ctx, key, hash, guildSecretTTL)
	return hash, nil
}

// ResetGuildCredential overwrites an existing guild's secret hash.
// Fails with domain.ErrNotRegistered when the guild was never created.
func (s *CredentialStore) ResetGuildCredential(ctx context.Context, guildID, secretHash string) error {
	if err := s.repo.ResetGuild(ctx, guildID, secretHash); err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			return err
		}
		return domain.NewStorageError("reset guild credential", err)
	}
	s.cacheSet(ctx, guildKeyPrefix+guildID, secretHash, guildSecretTTL)
	return nil
}

// GetIdentityMapping returns the Discord id linked to an external
// platform id, cache-first.
func (s *CredentialStore) GetIdentityMapping(ctx context.Context, externalUserID string) (string, error) {
	key := mappingKeyPrefix + externalUserID
	if discordID, ok := s.cacheGet(ctx, key); ok {
		return discordID, nil
	}

	discordID, err := s.repo.GetIdentityMapping(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", domain.NewStorageError("get identity mapping", err)
	}

	s.cacheSet(ctx, key, discordID, mappingReadTTL)
	return discordID, nil
}

// SetIdentityMapping writes the mapping through both layers. The cache
// write always happens so the in-flight request's result survives a
// durable-store outage; a durable failure is returned for the caller
// to log, not to abort on.
func (s *CredentialStore) SetIdentityMapping(ctx context.Context, externalUserID, discordUserID string) error {
	s.cacheSet(ctx, mappingKeyPrefix+externalUserID, discordUserID, mappingWriteTTL)

	if err := s.repo.SetIdentityMapping(ctx, externalUserID, discordUserID); err != nil {
		return domain.NewStorageError("set identity mapping", err)
	}
	return nil
}

func (s *CredentialStore) cacheGet(ctx context.Context, key string) (string, bool) {
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (s *CredentialStore) cacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.cache.SetEx(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
