package sale

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale/internal/entity"
	"github.com/samber/lo"
)

// Read-only projections. Callable in any status, both as contract
// entrypoints (JSON-encoded return value, the human-tooling mapping) and as
// typed methods consumed by the HTTP API.

type ViewResult struct {
	Status        SaleStatus             `json:"status"`
	OnSale        bool                   `json:"onSale"`
	SaleClosed    bool                   `json:"saleClosed"`
	AppliedUnits  types.UnitAmount       `json:"appliedUnits"`
	MaxUnits      types.UnitAmount       `json:"maxUnits"`
	MinUnits      types.UnitAmount       `json:"minUnits"`
	PricePerToken types.Amount           `json:"pricePerToken"`
	TokenPerUnit  types.TokenAmount      `json:"tokenPerUnit"`
	OpenAt        []SalePhase            `json:"openAt"`
	CloseAt       types.Timestamp        `json:"closeAt"`
	VestingStart  *types.Timestamp       `json:"vestingStart,omitempty"`
	ProjectToken  *types.ContractAddress `json:"projectToken,omitempty"`
}

type ParticipantView struct {
	Address    types.AccountAddress `json:"address"`
	Tier       Tier                 `json:"tier"`
	Deposit    types.Amount         `json:"deposit"`
	TgtUnits   types.UnitAmount     `json:"tgtUnits"`
	WinUnits   types.UnitAmount     `json:"winUnits"`
	ClaimedInc uint8                `json:"claimedInc"`
	TokenPaid  types.TokenAmount    `json:"tokenPaid"`
}

func (c *Contract) View(ctx context.Context, now types.Timestamp) (*ViewResult, error) {
	state, err := c.loadState(ctx)
	if err != nil {
		return nil, err
	}
	return &ViewResult{
		Status:        state.Status,
		OnSale:        state.Schedule.IsOnSale(now),
		SaleClosed:    state.Schedule.IsSaleClosed(now),
		AppliedUnits:  state.Info.AppliedUnits,
		MaxUnits:      state.Info.MaxUnits,
		MinUnits:      state.Info.MinUnits,
		PricePerToken: state.Info.PricePerToken,
		TokenPerUnit:  state.Info.TokenPerUnit,
		OpenAt:        state.Schedule.OpenAt,
		CloseAt:       state.Schedule.CloseAt,
		VestingStart:  state.Schedule.VestingStart,
		ProjectToken:  state.ProjectToken,
	}, nil
}

func (c *Contract) ViewParticipants(ctx context.Context) ([]ParticipantView, error) {
	participants, err := c.saleDg.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}
	views := lo.Map(participants, func(participant entity.Participant, _ int) ParticipantView {
		return ParticipantView{
			Address:    participant.Address,
			Tier:       Tier(participant.State.Prior),
			Deposit:    participant.State.Deposit,
			TgtUnits:   participant.State.TgtUnits,
			WinUnits:   participant.State.WinUnits,
			ClaimedInc: participant.State.ClaimedInc,
			TokenPaid:  participant.State.TokenPaid,
		}
	})
	return views, nil
}

func (c *Contract) ViewWinUnits(ctx context.Context, account types.AccountAddress) (types.UnitAmount, error) {
	user, err := c.saleDg.GetParticipant(ctx, account)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return 0, errors.Wrapf(ErrUnknownParticipant, "account %s", account)
		}
		return 0, err
	}
	return user.WinUnits, nil
}

func (c *Contract) viewBytes(ctx context.Context, rctx chain.ReceiveContext) ([]byte, error) {
	view, err := c.View(ctx, rctx.Now())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(view)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal view result")
	}
	return data, nil
}

func (c *Contract) viewParticipantsBytes(ctx context.Context) ([]byte, error) {
	views, err := c.ViewParticipants(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(views)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal participants")
	}
	return data, nil
}

func (c *Contract) viewWinUnitsBytes(ctx context.Context, params []byte) ([]byte, error) {
	var winUnitsParams ViewWinUnitsParams
	if err := winUnitsParams.UnmarshalParam(params); err != nil {
		return nil, err
	}
	winUnits, err := c.ViewWinUnits(ctx, winUnitsParams.Account)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(winUnits)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal win units")
	}
	return data, nil
}
