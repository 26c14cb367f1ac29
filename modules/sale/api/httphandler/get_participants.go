package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ovl-network/ido-engine/modules/sale"
)

type getParticipantsResponse struct {
	Result []sale.ParticipantView `json:"result"`
}

func (h *HttpHandler) GetParticipants(ctx *fiber.Ctx) error {
	participants, err := h.saleContract.ViewParticipants(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during ViewParticipants")
	}
	return errors.WithStack(ctx.JSON(getParticipantsResponse{
		Result: participants,
	}))
}
