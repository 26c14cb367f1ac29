package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale"
)

type getWinUnitsResponse struct {
	Address  types.AccountAddress `json:"address"`
	WinUnits types.UnitAmount     `json:"winUnits"`
}

func (h *HttpHandler) GetWinUnits(ctx *fiber.Ctx) error {
	address, err := types.NewAccountAddressFromString(ctx.Params("address"))
	if err != nil {
		return errs.WithPublicMessage(err, "invalid account address")
	}
	winUnits, err := h.saleContract.ViewWinUnits(ctx.UserContext(), address)
	if err != nil {
		if errors.Is(err, sale.ErrUnknownParticipant) {
			return errs.NewPublicError("participant not found")
		}
		return errors.Wrap(err, "error during ViewWinUnits")
	}
	return errors.WithStack(ctx.JSON(getWinUnitsResponse{
		Address:  address,
		WinUnits: winUnits,
	}))
}
