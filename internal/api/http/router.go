package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BartuV/telsiz/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Actions  *handlers.ActionsHandler
	Channels *handlers.ChannelsHandler
}

// RegisterRoutes wires HTTP routes. Paths follow the original public
// API shape; per-route auth lives in the handlers because each route
// consumes a different header set.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/auth/:gid", cfg.Auth.Issue)
	app.Get("/to/:uid/:cid/:gid", cfg.Actions.MoveToChannel)
	app.Get("/getRole/:uid/:gid", cfg.Actions.GetRole)
	app.Get("/getChannels/:gid", cfg.Channels.List)
}
