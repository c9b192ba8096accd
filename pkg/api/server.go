package api

import (
	"github.com/fleetlive/fleetlive/pkg/api/routes"
	"github.com/fleetlive/fleetlive/pkg/fanout"
	"github.com/fleetlive/fleetlive/pkg/ingest"
	"github.com/fleetlive/fleetlive/pkg/query"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(listen string, service *query.Service, gateway *ingest.Gateway, hub *fanout.Hub) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("/", routes.Welcome)
	group.Get("version", routes.APIVersion)
	group.Get("health", routes.Health)

	routes.VehiclesRouter(group.Group("/vehicles"), service)
	routes.RoutesRouter(group.Group("/routes"), service)
	routes.PositionsRouter(group.Group("/positions"), gateway)
	routes.DriversRouter(group.Group("/drivers"), gateway)

	group.Use("/ws", fanout.UpgradeRequired)
	group.Get("/ws", fanout.WebsocketHandler(hub, gateway))

	return webApp.Listen(listen)
}
