package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BartuV/telsiz/internal/api/dto"
	"github.com/BartuV/telsiz/internal/service"
	"github.com/BartuV/telsiz/pkg/util"
)

// ActionsHandler exposes the privileged gateway actions: moving a
// verified user into a voice channel and reading their roles.
type ActionsHandler struct {
	gateway  *service.AuthorizationGateway
	platform service.ChatPlatform
}

// NewActionsHandler constructs handler.
func NewActionsHandler(gateway *service.AuthorizationGateway, platform service.ChatPlatform) *ActionsHandler {
	return &ActionsHandler{gateway: gateway, platform: platform}
}

// MoveToChannel handles GET /to/:uid/:cid/:gid.
func (h *ActionsHandler) MoveToChannel(c *fiber.Ctx) error {
	if !h.platform.Ready() {
		return util.NewGatewayNotReady()
	}

	externalUserID := c.Params("uid")
	channelID := c.Params("cid")
	guildID := c.Params("gid")

	ctx := c.UserContext()
	authz, err := h.gateway.Authorize(ctx, service.AuthorizationRequest{
		GuildID:          guildID,
		IP:               c.IP(),
		RequestToken:     c.Get(HeaderRequestToken),
		ResolveIdentity:  true,
		ExternalUserID:   externalUserID,
		LookupCredential: c.Get(HeaderBloxlinkToken),
	})
	if err != nil {
		return err
	}

	if err := h.platform.MoveUserToVoiceChannel(ctx, authz.DiscordUserID, channelID, guildID); err != nil {
		return util.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.MoveResponse{
			DiscordUserID: authz.DiscordUserID,
			ChannelID:     channelID,
			GuildID:       guildID,
		},
	})
}

// GetRole handles GET /getRole/:uid/:gid.
func (h *ActionsHandler) GetRole(c *fiber.Ctx) error {
	if !h.platform.Ready() {
		return util.NewGatewayNotReady()
	}

	externalUserID := c.Params("uid")
	guildID := c.Params("gid")

	ctx := c.UserContext()
	authz, err := h.gateway.Authorize(ctx, service.AuthorizationRequest{
		GuildID:          guildID,
		IP:               c.IP(),
		RequestToken:     c.Get(HeaderRequestToken),
		ResolveIdentity:  true,
		ExternalUserID:   externalUserID,
		LookupCredential: c.Get(HeaderBloxlinkToken),
	})
	if err != nil {
		return err
	}

	roles, err := h.platform.GuildRoles(ctx, authz.DiscordUserID, guildID)
	if err != nil {
		return util.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.RolesResponse{DiscordUserID: authz.DiscordUserID, Roles: roles},
	})
}
