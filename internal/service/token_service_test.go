package service

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BartuV/telsiz/internal/auth"
	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/store"
	"github.com/BartuV/telsiz/pkg/util"
)

type fakeCredRepo struct {
	guilds   map[string]string
	mappings map[string]string
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{guilds: make(map[string]string), mappings: make(map[string]string)}
}

func (r *fakeCredRepo) CreateGuild(_ context.Context, guildID, secretHash string) error {
	if _, ok := r.guilds[guildID]; ok {
		return domain.ErrAlreadyRegistered
	}
	r.guilds[guildID] = secretHash
	return nil
}

func (r *fakeCredRepo) GetGuildSecretHash(_ context.Context, guildID string) (string, error) {
	hash, ok := r.guilds[guildID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return hash, nil
}

func (r *fakeCredRepo) ResetGuild(_ context.Context, guildID, secretHash string) error {
	if _, ok := r.guilds[guildID]; !ok {
		return domain.ErrNotRegistered
	}
	r.guilds[guildID] = secretHash
	return nil
}

func (r *fakeCredRepo) GetIdentityMapping(_ context.Context, externalUserID string) (string, error) {
	discordID, ok := r.mappings[externalUserID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return discordID, nil
}

func (r *fakeCredRepo) SetIdentityMapping(_ context.Context, externalUserID, discordUserID string) error {
	r.mappings[externalUserID] = discordUserID
	return nil
}

type fakeSessRepo struct {
	sessions map[string]string
}

func newFakeSessRepo() *fakeSessRepo {
	return &fakeSessRepo{sessions: make(map[string]string)}
}

func (r *fakeSessRepo) Get(_ context.Context, ip string) (string, error) {
	token, ok := r.sessions[ip]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (r *fakeSessRepo) Put(_ context.Context, ip, signedToken string) error {
	r.sessions[ip] = signedToken
	return nil
}

func (r *fakeSessRepo) Delete(_ context.Context, ip string) error {
	delete(r.sessions, ip)
	return nil
}

func newTestTokenService(t *testing.T) (*TokenService, *fakeCredRepo, *fakeSessRepo) {
	t.Helper()
	credRepo := newFakeCredRepo()
	sessRepo := newFakeSessRepo()
	logger := zap.NewNop()
	svc := NewTokenService(TokenServiceDeps{
		Credentials: store.NewCredentialStore(credRepo, store.NewMemoryCache(), logger),
		Sessions:    store.NewSessionStore(sessRepo, store.NewMemoryCache(), logger),
		Tokens:      auth.NewTokenManager(time.Hour),
		BcryptCost:  bcrypt.MinCost,
		Logger:      logger,
	})
	return svc, credRepo, sessRepo
}

func denialCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

// expiredTokenFor signs an already-expired session token with the
// guild's stored hash.
func expiredTokenFor(t *testing.T, signingKey, uid string) string {
	t.Helper()
	claims := &auth.SessionClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}
	return token
}

func TestCreateServerCredential_OnceThenConflict(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	secret, err := svc.CreateServerCredential(ctx, "G1")
	if err != nil {
		t.Fatalf("first create returned error: %v", err)
	}
	if secret == "" {
		t.Fatal("expected a raw secret")
	}

	_, err = svc.CreateServerCredential(ctx, "G1")
	if code := denialCode(t, err); code != util.CodeAlreadyRegistered {
		t.Errorf("expected %s, got %s", util.CodeAlreadyRegistered, code)
	}
}

func TestResetServerCredential_RequiresRegistration(t *testing.T) {
	svc, _, _ := newTestTokenService(t)

	_, err := svc.ResetServerCredential(context.Background(), "never-registered")
	if code := denialCode(t, err); code != util.CodeNotRegistered {
		t.Errorf("expected %s, got %s", util.CodeNotRegistered, code)
	}
}

func TestAuthenticateServer(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	secret, err := svc.CreateServerCredential(ctx, "G1")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := svc.AuthenticateServer(ctx, "G1", secret); err != nil {
		t.Errorf("expected the raw secret to authenticate, got %v", err)
	}

	err = svc.AuthenticateServer(ctx, "G1", "wrong-secret")
	if code := denialCode(t, err); code != util.CodeInvalidServerToken {
		t.Errorf("expected %s, got %s", util.CodeInvalidServerToken, code)
	}

	err = svc.AuthenticateServer(ctx, "unknown-guild", secret)
	if code := denialCode(t, err); code != util.CodeNotRegistered {
		t.Errorf("expected %s, got %s", util.CodeNotRegistered, code)
	}
}

func TestIssueThenVerify_Allowed(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	uid, err := svc.VerifyRequest(ctx, "1.2.3.4", "G1", token)
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if uid == "" {
		t.Error("expected a verified session id")
	}
}

func TestVerifyRequest_ExpiredTokenSignsOut(t *testing.T) {
	svc, credRepo, sessRepo := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1"); err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	expired := expiredTokenFor(t, credRepo.guilds["G1"], "session-id")
	_, err := svc.VerifyRequest(ctx, "1.2.3.4", "G1", expired)
	if code := denialCode(t, err); code != util.CodeExpiredToken {
		t.Fatalf("expected %s, got %s", util.CodeExpiredToken, code)
	}

	// Expiry is an implicit sign-out: the stored session is gone.
	if _, ok := sessRepo.sessions["1.2.3.4"]; ok {
		t.Error("expected stored session to be deleted after expiry")
	}
}

func TestVerifyRequest_NoActiveSession(t *testing.T) {
	svc, _, sessRepo := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	// Simulate sign-out behind the caller's back. The cache is fresh
	// per test service, so clearing the durable store is enough only
	// together with a new service; delete through the store instead.
	delete(sessRepo.sessions, "1.2.3.4")
	if err := svc.sessions.Delete(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}

	_, err = svc.VerifyRequest(ctx, "1.2.3.4", "G1", token)
	if code := denialCode(t, err); code != util.CodeNoActiveSession {
		t.Errorf("expected %s, got %s", util.CodeNoActiveSession, code)
	}
}

func TestVerifyRequest_SessionMismatch(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	first, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("first issue returned error: %v", err)
	}
	// A second issuance replaces the stored session; the first token
	// still has a valid signature but a stale session id.
	if _, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1"); err != nil {
		t.Fatalf("second issue returned error: %v", err)
	}

	_, err = svc.VerifyRequest(ctx, "1.2.3.4", "G1", first)
	if code := denialCode(t, err); code != util.CodeSessionMismatch {
		t.Errorf("expected %s, got %s", util.CodeSessionMismatch, code)
	}
}

func TestVerifyRequest_UnregisteredGuild(t *testing.T) {
	svc, _, _ := newTestTokenService(t)

	_, err := svc.VerifyRequest(context.Background(), "1.2.3.4", "G1", "whatever")
	if code := denialCode(t, err); code != util.CodeNotRegistered {
		t.Errorf("expected %s, got %s", util.CodeNotRegistered, code)
	}
}

// Register, issue, verify, reset, verify again: the reset rotates the
// signing key, so the old session token fails with a signature error
// even though its expiry has not passed.
func TestResetInvalidatesOutstandingSessions(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}
	if _, err := svc.VerifyRequest(ctx, "1.2.3.4", "G1", token); err != nil {
		t.Fatalf("verify before reset returned error: %v", err)
	}

	if _, err := svc.ResetServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("reset returned error: %v", err)
	}

	_, err = svc.VerifyRequest(ctx, "1.2.3.4", "G1", token)
	if code := denialCode(t, err); code != util.CodeInvalidSignature {
		t.Errorf("expected %s after reset, got %s", util.CodeInvalidSignature, code)
	}
}
