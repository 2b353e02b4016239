package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/auth"
	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/events"
	"github.com/BartuV/telsiz/internal/store"
	"github.com/BartuV/telsiz/pkg/util"
)

// TokenService owns the guild credential lifecycle and the session
// token pipeline. A guild's state machine is implicit: unregistered
// until CreateServerCredential, registered afterwards; reset rotates
// the secret and with it the signing key for every outstanding
// session token of that guild.
type TokenService struct {
	creds      *store.CredentialStore
	sessions   *store.SessionStore
	tokens     *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TokenServiceDeps bundles construction dependencies.
type TokenServiceDeps struct {
	Credentials *store.CredentialStore
	Sessions    *store.SessionStore
	Tokens      *auth.TokenManager
	BcryptCost  int
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTokenService builds the service.
func NewTokenService(deps TokenServiceDeps) *TokenService {
	return &TokenService{
		creds:      deps.Credentials,
		sessions:   deps.Sessions,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateServerCredential registers a guild and returns the raw secret.
// The secret is returned exactly once; only its hash is stored. A
// second call for the same guild fails with ALREADY_REGISTERED.
func (s *TokenService) CreateServerCredential(ctx context.Context, guildID string) (string, error) {
	secret, err := auth.NewServerSecret()
	if err != nil {
		return "", util.NewInternalError(err)
	}
	hash, err := auth.HashSecret(secret, s.bcryptCost)
	if err != nil {
		return "", util.NewInternalError(err)
	}

	if err := s.creds.CreateGuildCredential(ctx, guildID, hash); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return "", util.NewAlreadyRegistered(guildID)
		}
		return "", util.NewStorageFault(err)
	}

	s.publish(ctx, events.EventCredentialCreated, guildID, nil)
	return secret, nil
}

// ResetServerCredential rotates a registered guild's secret and
// returns the new raw value once. Every session token signed with the
// previous secret fails verification from this point on.
func (s *TokenService) ResetServerCredential(ctx context.Context, guildID string) (string, error) {
	secret, err := auth.NewServerSecret()
	if err != nil {
		return "", util.NewInternalError(err)
	}
	hash, err := auth.HashSecret(secret, s.bcryptCost)
	if err != nil {
		return "", util.NewInternalError(err)
	}

	if err := s.creds.ResetGuildCredential(ctx, guildID, hash); err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			return "", util.NewNotRegistered(guildID)
		}
		return "", util.NewStorageFault(err)
	}

	s.publish(ctx, events.EventCredentialReset, guildID, nil)
	return secret, nil
}

// AuthenticateServer checks a presented raw server secret against the
// guild's stored hash.
func (s *TokenService) AuthenticateServer(ctx context.Context, guildID, rawSecret string) error {
	hash, err := s.guildSecretHash(ctx, guildID)
	if err != nil {
		return err
	}
	if err := auth.CompareSecret(hash, rawSecret); err != nil {
		return util.NewDenial(util.CodeInvalidServerToken, "servertoken doesn't match the server key")
	}
	return nil
}

// IssueSessionToken mints a session token for the caller's IP, signed
// with the guild's stored hash, and upserts it as the IP's single
// active session.
func (s *TokenService) IssueSessionToken(ctx context.Context, ip, guildID string) (string, time.Time, error) {
	hash, err := s.guildSecretHash(ctx, guildID)
	if err != nil {
		return "", time.Time{}, err
	}

	token, uid, expiresAt, err := s.tokens.Issue(hash)
	if err != nil {
		return "", time.Time{}, util.NewInternalError(err)
	}

	if err := s.sessions.Put(ctx, ip, token); err != nil {
		return "", time.Time{}, util.NewStorageFault(err)
	}

	s.publish(ctx, events.EventSessionIssued, guildID, events.SessionIssuedPayload{
		IP:        ip,
		SessionID: uid,
		ExpiresAt: expiresAt,
	})
	return token, expiresAt, nil
}

// VerifyRequest runs the full verification pipeline for a presented
// request token: guild secret, presented token signature and expiry,
// stored session presence and validity, and session id match. On
// success it returns the verified session identifier.
func (s *TokenService) VerifyRequest(ctx context.Context, ip, guildID, presentedToken string) (string, error) {
	hash, err := s.guildSecretHash(ctx, guildID)
	if err != nil {
		return "", err
	}

	presented, err := s.tokens.Parse(hash, presentedToken)
	if err != nil {
		return "", s.classifyTokenError(ctx, ip, err)
	}

	storedToken, err := s.sessions.Get(ctx, ip)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", util.NewDenial(util.CodeNoActiveSession, "you are not logged in")
		}
		return "", util.NewStorageFault(err)
	}

	stored, err := s.tokens.Parse(hash, storedToken)
	if err != nil {
		return "", s.classifyTokenError(ctx, ip, err)
	}

	if stored.UID != presented.UID {
		return "", util.NewDenial(util.CodeSessionMismatch, "wrong session id")
	}
	return presented.UID, nil
}

func (s *TokenService) guildSecretHash(ctx context.Context, guildID string) (string, error) {
	hash, err := s.creds.GetGuildCredential(ctx, guildID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", util.NewNotRegistered(guildID)
		}
		return "", util.NewStorageFault(err)
	}
	return hash, nil
}

// classifyTokenError maps a parse failure to its denial. Expiry is an
// implicit sign-out: the IP's stored session is deleted first.
func (s *TokenService) classifyTokenError(ctx context.Context, ip string, err error) error {
	if errors.Is(err, auth.ErrTokenExpired) {
		if delErr := s.sessions.Delete(ctx, ip); delErr != nil {
			s.logger.Warn("deleting expired session failed", zap.String("ip", ip), zap.Error(delErr))
		}
		return util.NewDenial(util.CodeExpiredToken, "session expired, authenticate again")
	}
	return util.NewDenial(util.CodeInvalidSignature, "invalid token signature")
}

func (s *TokenService) publish(ctx context.Context, eventType events.EventType, guildID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		GuildID:   guildID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
