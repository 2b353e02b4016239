package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/identity"
)

type fakeLookupAPI struct {
	ids []string
	err error
}

func (a *fakeLookupAPI) RobloxToDiscord(context.Context, string, string, string) ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.ids, nil
}

func newTestGateway(t *testing.T, api identity.LookupAPI) (*AuthorizationGateway, *TokenService) {
	t.Helper()
	svc, _, _ := newTestTokenService(t)
	resolver := identity.NewResolver(svc.creds, api, nil, zap.NewNop())
	return NewAuthorizationGateway(svc, resolver, zap.NewNop()), svc
}

func TestAuthorize_MissingToken(t *testing.T) {
	gateway, _ := newTestGateway(t, &fakeLookupAPI{})

	_, err := gateway.Authorize(context.Background(), AuthorizationRequest{
		GuildID: "G1",
		IP:      "1.2.3.4",
	})
	if code := denialCode(t, err); code != "MISSING_TOKEN" {
		t.Errorf("expected MISSING_TOKEN, got %s", code)
	}
}

func TestAuthorize_WithoutResolutionReturnsSession(t *testing.T) {
	gateway, svc := newTestGateway(t, &fakeLookupAPI{})
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	authz, err := gateway.Authorize(ctx, AuthorizationRequest{
		GuildID:      "G1",
		IP:           "1.2.3.4",
		RequestToken: token,
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if authz.SessionID == "" {
		t.Error("expected a session id")
	}
	if authz.DiscordUserID != "" {
		t.Error("expected no identity resolution")
	}
}

func TestAuthorize_ResolutionRequiresCredential(t *testing.T) {
	gateway, svc := newTestGateway(t, &fakeLookupAPI{ids: []string{"discord-99"}})
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	_, err = gateway.Authorize(ctx, AuthorizationRequest{
		GuildID:         "G1",
		IP:              "1.2.3.4",
		RequestToken:    token,
		ResolveIdentity: true,
		ExternalUserID:  "roblox-42",
	})
	if code := denialCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED for missing credential, got %s", code)
	}
}

func TestAuthorize_ResolvesIdentity(t *testing.T) {
	gateway, svc := newTestGateway(t, &fakeLookupAPI{ids: []string{"discord-99"}})
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	authz, err := gateway.Authorize(ctx, AuthorizationRequest{
		GuildID:          "G1",
		IP:               "1.2.3.4",
		RequestToken:     token,
		ResolveIdentity:  true,
		ExternalUserID:   "roblox-42",
		LookupCredential: "bloxlink-cred",
	})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if authz.DiscordUserID != "discord-99" {
		t.Errorf("expected discord-99, got %q", authz.DiscordUserID)
	}
}

func TestAuthorize_IdentityNotFound(t *testing.T) {
	gateway, svc := newTestGateway(t, &fakeLookupAPI{ids: []string{}})
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	_, err = gateway.Authorize(ctx, AuthorizationRequest{
		GuildID:          "G1",
		IP:               "1.2.3.4",
		RequestToken:     token,
		ResolveIdentity:  true,
		ExternalUserID:   "roblox-42",
		LookupCredential: "bloxlink-cred",
	})
	if code := denialCode(t, err); code != "IDENTITY_NOT_FOUND" {
		t.Errorf("expected IDENTITY_NOT_FOUND, got %s", code)
	}
}

func TestAuthorize_LookupFailure(t *testing.T) {
	gateway, svc := newTestGateway(t, &fakeLookupAPI{err: identity.ErrLookupFailed})
	ctx := context.Background()

	if _, err := svc.CreateServerCredential(ctx, "G1"); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	token, _, err := svc.IssueSessionToken(ctx, "1.2.3.4", "G1")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	_, err = gateway.Authorize(ctx, AuthorizationRequest{
		GuildID:          "G1",
		IP:               "1.2.3.4",
		RequestToken:     token,
		ResolveIdentity:  true,
		ExternalUserID:   "roblox-42",
		LookupCredential: "bloxlink-cred",
	})
	if !errors.Is(err, identity.ErrLookupFailed) {
		code := denialCode(t, err)
		if code != "LOOKUP_FAILED" {
			t.Errorf("expected LOOKUP_FAILED, got %s", code)
		}
	}
}
