package routes

import (
	"github.com/fleetlive/fleetlive/pkg/query"
	"github.com/gofiber/fiber/v2"
)

func RoutesRouter(router fiber.Router, queryService *query.Service) {
	router.Get("/", listRoutes(queryService))
	router.Get("/:identifier/vehicles", getRouteVehicles(queryService))
}

func listRoutes(queryService *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		activeRoutes, err := queryService.Routes(c.Context())
		if err != nil {
			return renderError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"count":   len(activeRoutes),
			"routes":  activeRoutes,
		})
	}
}

func getRouteVehicles(queryService *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := c.Params("identifier")

		liveVehicles, err := queryService.RouteVehicles(c.Context(), identifier)
		if err != nil {
			return renderError(c, err)
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"count":    len(liveVehicles),
			"vehicles": liveVehicles,
		})
	}
}
