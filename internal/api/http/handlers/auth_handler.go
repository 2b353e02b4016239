package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BartuV/telsiz/internal/api/dto"
	"github.com/BartuV/telsiz/internal/service"
	"github.com/BartuV/telsiz/pkg/util"
)

// Header names, kept as the original API published them.
const (
	HeaderServerToken   = "servertoken"
	HeaderRequestToken  = "jwttoken"
	HeaderBloxlinkToken = "bloxlink-token"
)

// AuthHandler exposes session issuance.
type AuthHandler struct {
	tokens *service.TokenService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Issue handles GET /auth/:gid. The caller proves possession of the
// raw server secret; on match a session token is issued for its IP.
func (h *AuthHandler) Issue(c *fiber.Ctx) error {
	guildID := c.Params("gid")
	serverToken := c.Get(HeaderServerToken)
	if serverToken == "" {
		return util.NewValidationError("servertoken wasn't specified in headers", nil)
	}

	ctx := c.UserContext()
	if err := h.tokens.AuthenticateServer(ctx, guildID, serverToken); err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.IssueSessionToken(ctx, c.IP(), guildID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{Token: token, ExpiresAt: expiresAt},
	})
}
