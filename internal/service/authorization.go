package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/domain"
	"github.com/BartuV/telsiz/internal/identity"
	"github.com/BartuV/telsiz/pkg/util"
)

// AuthorizationRequest carries everything the gateway needs to decide
// one inbound request. ExternalUserID and LookupCredential are only
// consulted when ResolveIdentity is set.
type AuthorizationRequest struct {
	GuildID          string
	IP               string
	RequestToken     string
	ResolveIdentity  bool
	ExternalUserID   string
	LookupCredential string
}

// Authorization is a granted decision.
type Authorization struct {
	SessionID     string
	DiscordUserID string
}

// AuthorizationGateway is the request-level protocol entry point. It
// orchestrates token verification and identity resolution and maps
// every failure to a DomainError with an enumerable denial code;
// nothing escapes this boundary untyped.
type AuthorizationGateway struct {
	tokens   *TokenService
	resolver *identity.Resolver
	logger   *zap.Logger
}

// NewAuthorizationGateway builds the gateway.
func NewAuthorizationGateway(tokens *TokenService, resolver *identity.Resolver, logger *zap.Logger) *AuthorizationGateway {
	return &AuthorizationGateway{tokens: tokens, resolver: resolver, logger: logger}
}

// Authorize verifies the request token for the caller's IP and guild
// and, when the action requires it, resolves the external identity to
// a Discord user id.
func (g *AuthorizationGateway) Authorize(ctx context.Context, req AuthorizationRequest) (*Authorization, error) {
	if req.RequestToken == "" {
		return nil, util.NewDenial(util.CodeMissingToken, "jwttoken wasn't provided in headers")
	}

	uid, err := g.tokens.VerifyRequest(ctx, req.IP, req.GuildID, req.RequestToken)
	if err != nil {
		return nil, util.MapError(err)
	}

	result := &Authorization{SessionID: uid}
	if !req.ResolveIdentity {
		return result, nil
	}

	if req.LookupCredential == "" {
		return nil, util.NewValidationError("please provide a bloxlink token in the headers",
			map[string]any{"code": util.CodeMissingCredential})
	}

	discordID, err := g.resolver.Resolve(ctx, req.ExternalUserID, req.GuildID, req.LookupCredential)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, util.NewIdentityNotFound(req.ExternalUserID)
		case errors.Is(err, identity.ErrLookupFailed):
			return nil, util.NewLookupFailed(err)
		default:
			return nil, util.MapError(err)
		}
	}

	result.DiscordUserID = discordID
	return result, nil
}
