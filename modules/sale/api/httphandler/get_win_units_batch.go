package httphandler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type getWinUnitsBatchRequest struct {
	Addresses []string `json:"addresses"`
}

const getWinUnitsBatchMaxQueries = 100

func (r getWinUnitsBatchRequest) Validate() error {
	var errList []error
	if len(r.Addresses) == 0 {
		errList = append(errList, errors.New("at least one address is required"))
	}
	if len(r.Addresses) > getWinUnitsBatchMaxQueries {
		errList = append(errList, errors.Errorf("cannot exceed %d addresses", getWinUnitsBatchMaxQueries))
	}
	for i, address := range r.Addresses {
		if _, err := types.NewAccountAddressFromString(address); err != nil {
			errList = append(errList, errors.Errorf("addresses[%d]: not a valid account address", i))
		}
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getWinUnitsBatchResponse struct {
	List []*getWinUnitsResponse `json:"list"`
}

func (h *HttpHandler) GetWinUnitsBatch(ctx *fiber.Ctx) error {
	var req getWinUnitsBatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	processQuery := func(ctx context.Context, address string) (*getWinUnitsResponse, error) {
		account, err := types.NewAccountAddressFromString(address)
		if err != nil {
			return nil, err
		}
		winUnits, err := h.saleContract.ViewWinUnits(ctx, account)
		if err != nil {
			if errors.Is(err, sale.ErrUnknownParticipant) {
				winUnits = 0
			} else {
				return nil, errors.Wrap(err, "error during ViewWinUnits")
			}
		}
		return &getWinUnitsResponse{Address: account, WinUnits: winUnits}, nil
	}

	results := make([]*getWinUnitsResponse, len(req.Addresses))
	eg, egctx := errgroup.WithContext(ctx.UserContext())
	for i, address := range req.Addresses {
		i, address := i, address
		eg.Go(func() error {
			result, err := processQuery(egctx, address)
			if err != nil {
				return errors.Wrapf(err, "addresses[%d]", i)
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(ctx.JSON(getWinUnitsBatchResponse{
		List: lo.Filter(results, func(result *getWinUnitsResponse, _ int) bool { return result != nil }),
	}))
}
