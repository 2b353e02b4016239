package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/repository"
)

const (
	sessionKeyPrefix = "authKey:"
	sessionCacheTTL  = time.Hour
)

// SessionStore layers the volatile cache over the durable session
// repository. One session per IP; Put replaces silently.
type SessionStore struct {
	repo   repository.SessionRepository
	cache  Cache
	logger *zap.Logger
}

// NewSessionStore builds the store.
func NewSessionStore(repo repository.SessionRepository, cache Cache, logger *zap.Logger) *SessionStore {
	return &SessionStore{repo: repo, cache: cache, logger: logger}
}

// Get returns the signed session token for an IP, cache-first, or
// domain.ErrNotFound when absent in both layers.
func (s *SessionStore) Get(ctx context.Context, ip string) (string, error) {
	key := sessionKeyPrefix + ip
	token, err := s.cache.Get(ctx, key)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("session cache read failed", zap.String("ip", ip), zap.Error(err))
	}

	token, err = s.repo.Get(ctx, ip)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", domain.NewStorageError("get session", err)
	}

	if err := s.cache.SetEx(ctx, key, token, sessionCacheTTL); err != nil {
		s.logger.Warn("session cache write failed", zap.String("ip", ip), zap.Error(err))
	}
	return token, nil
}

// Put upserts the session for an IP in both layers. A durable failure
// is a storage fault; a cache failure only degrades reads.
func (s *SessionStore) Put(ctx context.Context, ip, signedToken string) error {
	if err := s.repo.Put(ctx, ip, signedToken); err != nil {
		return domain.NewStorageError("put session", err)
	}
	if err := s.cache.SetEx(ctx, sessionKeyPrefix+ip, signedToken, sessionCacheTTL); err != nil {
		s.logger.Warn("session cache write failed", zap.String("ip", ip), zap.Error(err))
	}
	return nil
}

// Delete removes the session from both layers. Idempotent.
func (s *SessionStore) Delete(ctx context.Context, ip string) error {
	if err := s.cache.Del(ctx, sessionKeyPrefix+ip); err != nil {
		s.logger.Warn("session cache delete failed", zap.String("ip", ip), zap.Error(err))
	}
	if err := s.repo.Delete(ctx, ip); err != nil {
		return domain.NewStorageError("delete session", err)
	}
	return nil
}
