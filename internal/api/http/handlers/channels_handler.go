package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BartuV/telsiz/internal/api/dto"
	"github.com/BartuV/telsiz/internal/repository"
	"github.com/BartuV/telsiz/internal/service"
	"github.com/BartuV/telsiz/pkg/util"
)

// ChannelsHandler lists the voice channels registered for a guild.
type ChannelsHandler struct {
	gateway  *service.AuthorizationGateway
	channels repository.ChannelRepository
}

// NewChannelsHandler constructs handler.
func NewChannelsHandler(gateway *service.AuthorizationGateway, channels repository.ChannelRepository) *ChannelsHandler {
	return &ChannelsHandler{gateway: gateway, channels: channels}
}

// List handles GET /getChannels/:gid. Requires a valid session but no
// identity resolution.
func (h *ChannelsHandler) List(c *fiber.Ctx) error {
	guildID := c.Params("gid")

	ctx := c.UserContext()
	if _, err := h.gateway.Authorize(ctx, service.AuthorizationRequest{
		GuildID:      guildID,
		IP:           c.IP(),
		RequestToken: c.Get(HeaderRequestToken),
	}); err != nil {
		return err
	}

	channels, err := h.channels.ListByGuild(ctx, guildID)
	if err != nil {
		return util.NewStorageFault(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.ChannelsResponse{GuildID: guildID, Channels: channels},
	})
}
