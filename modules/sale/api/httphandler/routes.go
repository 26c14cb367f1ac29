package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/sale/v1")

	r.Get("/view", h.GetView)
	r.Get("/participants", h.GetParticipants)
	r.Get("/win-units/:address", h.GetWinUnits)
	r.Post("/win-units/batch", h.GetWinUnitsBatch)

	return nil
}
