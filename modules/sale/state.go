package sale

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/core/types"
)

// SaleState is the contract-wide state: lifecycle status, the immutable
// schedule and capacity tracker, the role addresses, and the per-role vesting
// counters. Participants live in the data gateway, not here.
type SaleState struct {
	Status    SaleStatus           `json:"status"`
	ProjAdmin types.AccountAddress `json:"projAdmin"`
	BbbAddr   types.AccountAddress `json:"bbbAddr"`
	Schedule  SaleSchedule         `json:"schedule"`
	Info      SaleInfo             `json:"info"`

	// ProjectToken is the CIS2 contract that claims pay out in. Unset until
	// setPjtoken; claims fail until it is.
	ProjectToken *types.ContractAddress `json:"projectToken,omitempty"`

	// DepositToken is set on the token-denominated variant only: deposits
	// arrive as transfer hooks from this contract.
	DepositToken *types.ContractAddress `json:"depositToken,omitempty"`

	// Fee shares taken out of the total raised allocation. The project's
	// share is the remainder after both fees.
	OvlShare types.Percentage `json:"ovlShare"`
	BbbShare types.Percentage `json:"bbbShare"`

	OvlClaimedInc     uint8 `json:"ovlClaimedInc"`
	BbbClaimedInc     uint8 `json:"bbbClaimedInc"`
	ProjectClaimedInc uint8 `json:"projectClaimedInc"`
}

// ProjectShare is the allocation percentage left after both fee shares.
func (s *SaleState) ProjectShare() types.Percentage {
	return 100 - s.OvlShare - s.BbbShare
}

func (c *Contract) loadState(ctx context.Context) (*SaleState, error) {
	data, err := c.saleDg.GetSaleState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't load sale state")
	}
	var state SaleState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "can't unmarshal sale state")
	}
	return &state, nil
}

func (c *Contract) saveState(ctx context.Context, state *SaleState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "can't marshal sale state")
	}
	if err := c.saleDg.SaveSaleState(ctx, data); err != nil {
		return errors.Wrap(err, "can't save sale state")
	}
	return nil
}
