package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/modules/sale"
)

type getViewResponse struct {
	Result *sale.ViewResult `json:"result"`

	// Human-denominated price for tooling; raw micro-units stay in Result.
	PricePerTokenDecimal string `json:"pricePerTokenDecimal"`
}

func (h *HttpHandler) GetView(ctx *fiber.Ctx) error {
	view, err := h.saleContract.View(ctx.UserContext(), h.chain.Now())
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("sale contract is not initialized")
		}
		return errors.Wrap(err, "error during View")
	}
	return errors.WithStack(ctx.JSON(getViewResponse{
		Result:               view,
		PricePerTokenDecimal: view.PricePerToken.Decimal().String(),
	}))
}
