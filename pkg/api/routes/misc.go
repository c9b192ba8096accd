package routes

import (
	"github.com/fleetlive/fleetlive/pkg/database"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/gofiber/fiber/v2"
)

func Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "FleetLive vehicle tracking API",
	})
}

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": "v0.1",
	})
}

func Health(c *fiber.Ctx) error {
	healthy := database.Healthy(c.Context())

	status := "OK"
	if !healthy {
		status = "DEGRADED"
		c.Status(fiber.StatusServiceUnavailable)
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": healthy,
	})
}

func renderError(c *fiber.Ctx, err error) error {
	switch {
	case transit.IsValidationError(err):
		c.SendStatus(fiber.StatusBadRequest)
	case transit.IsNotFoundError(err):
		c.SendStatus(fiber.StatusNotFound)
	case transit.IsTransientStoreError(err):
		c.SendStatus(fiber.StatusServiceUnavailable)
	default:
		c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
