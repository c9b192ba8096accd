package routes

import (
	"github.com/fleetlive/fleetlive/pkg/ingest"
	"github.com/gofiber/fiber/v2"
)

func PositionsRouter(router fiber.Router, gateway *ingest.Gateway) {
	router.Post("/", submitPosition(gateway))
}

func submitPosition(gateway *ingest.Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var submission ingest.PositionSubmission
		if err := c.BodyParser(&submission); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Failed to decode request body",
			})
		}

		if err := gateway.SubmitPosition(c.Context(), submission); err != nil {
			return renderError(c, err)
		}

		c.SendStatus(fiber.StatusAccepted)
		return c.JSON(fiber.Map{
			"success": true,
		})
	}
}
