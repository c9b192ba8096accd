package routes

import (
	"github.com/fleetlive/fleetlive/pkg/ingest"
	"github.com/gofiber/fiber/v2"
)

func DriversRouter(router fiber.Router, gateway *ingest.Gateway) {
	router.Post("/status", submitDriverStatus(gateway))
}

func submitDriverStatus(gateway *ingest.Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var submission ingest.StatusSubmission
		if err := c.BodyParser(&submission); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Failed to decode request body",
			})
		}

		if err := gateway.SubmitStatus(c.Context(), submission); err != nil {
			return renderError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
		})
	}
}
