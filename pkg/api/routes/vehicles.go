package routes

import (
	"strconv"

	"github.com/fleetlive/fleetlive/pkg/query"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

func VehiclesRouter(router fiber.Router, queryService *query.Service) {
	router.Get("/live", listLiveVehicles(queryService))
	router.Get("/nearest", getNearestVehicle(queryService))
}

func listLiveVehicles(queryService *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routeRef := c.Query("route")

		groups := []string{"basic"}
		if c.Query("detailed") == "true" {
			groups = append(groups, "detailed")
		}

		liveVehicles, err := queryService.LiveVehicles(c.Context(), routeRef)
		if err != nil {
			return renderError(c, err)
		}

		vehiclesReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: groups,
		}, liveVehicles)

		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sherrif could not reduce LiveVehicles",
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"count":    len(liveVehicles),
			"vehicles": vehiclesReduced,
		})
	}
}

func getNearestVehicle(queryService *query.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		latitude, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Parameter lat should be a valid number",
			})
		}

		longitude, err := strconv.ParseFloat(c.Query("lon"), 64)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Parameter lon should be a valid number",
			})
		}

		routeRef := c.Query("route")

		nearestVehicle, err := queryService.NearestVehicle(c.Context(), latitude, longitude, routeRef)
		if err != nil {
			return renderError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"nearest": nearestVehicle,
		})
	}
}
