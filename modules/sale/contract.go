// Package sale implements the IDO sale lifecycle contract: whitelisting,
// priority-tiered deposits with partial fill, fixation against the softcap,
// and time-based vesting claims. The same state machine serves both the
// native-currency and the token-denominated deposit variants.
package sale

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale/datagateway"
	"github.com/ovl-network/ido-engine/modules/sale/internal/entity"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

// Variant selects the deposit denomination.
type Variant uint8

const (
	// VariantCCD accepts deposits as native currency attached to userDeposit.
	VariantCCD Variant = iota
	// VariantCIS2 accepts deposits as inbound token-transfer hooks from the
	// configured deposit token contract.
	VariantCIS2
)

// Entrypoint names, matched verbatim by the host dispatch.
const (
	EntrypointWhitelisting     = "whitelisting"
	EntrypointSetStatus        = "setStatus"
	EntrypointSetFixed         = "setFixed"
	EntrypointSetPjtoken       = "setPjtoken"
	EntrypointSetTGE           = "setTGE"
	EntrypointUserDeposit      = "userDeposit"
	EntrypointOnReceivingCIS2  = "onReceivingCIS2"
	EntrypointOvlClaim         = "ovlClaim"
	EntrypointBbbClaim         = "bbbClaim"
	EntrypointProjectClaim     = "projectClaim"
	EntrypointUserClaim        = "userClaim"
	EntrypointUserQuit         = "userQuit"
	EntrypointView             = "view"
	EntrypointViewParticipants = "viewParticipants"
	EntrypointViewWinUnits     = "viewWinUnits"
)

// Contract is the sale state machine bound to an injected state store.
type Contract struct {
	variant Variant
	saleDg  datagateway.SaleDataGateway
}

func New(variant Variant, saleDg datagateway.SaleDataGateway) *Contract {
	return &Contract{
		variant: variant,
		saleDg:  saleDg,
	}
}

var _ chain.Contract = (*Contract)(nil)

func (c *Contract) Init(ctx context.Context, ictx chain.InitContext, params []byte) error {
	var initParams InitParams
	if err := initParams.UnmarshalParam(params); err != nil {
		return err
	}

	schedule, err := NewSaleSchedule(ictx.Now(), initParams.OpenAt, initParams.CloseAt, initParams.VestingPeriod)
	if err != nil {
		return err
	}
	info, err := NewSaleInfo(initParams.PricePerToken, initParams.TokenPerUnit, initParams.MaxUnits, initParams.MinUnits)
	if err != nil {
		return err
	}
	if uint16(initParams.OvlShare)+uint16(initParams.BbbShare) > 100 {
		return errors.Wrapf(ErrInappropriate, "fee shares %d+%d exceed 100", initParams.OvlShare, initParams.BbbShare)
	}
	if c.variant == VariantCIS2 && initParams.DepositToken == nil {
		return errors.Wrap(ErrInappropriate, "token-denominated sale requires a deposit token")
	}

	state := &SaleState{
		Status:    StatusPrepare,
		ProjAdmin: initParams.ProjAdmin,
		BbbAddr:   initParams.BbbAddr,
		Schedule:  *schedule,
		Info:      *info,
		OvlShare:  initParams.OvlShare,
		BbbShare:  initParams.BbbShare,
	}
	if c.variant == VariantCIS2 {
		state.DepositToken = initParams.DepositToken
	}

	logger.DebugContext(ctx, "initialized sale contract",
		slogx.Stringer("self", ictx.Self()),
		slogx.Stringer("closeAt", state.Schedule.CloseAt.Time()))
	return c.saveState(ctx, state)
}

func (c *Contract) Receive(ctx context.Context, rctx chain.ReceiveContext, entrypoint string, params []byte) ([]byte, error) {
	switch entrypoint {
	case EntrypointUserDeposit, EntrypointOnReceivingCIS2:
		// payable / hook entrypoints, dispatched below
	default:
		if rctx.AmountPaid() != 0 {
			return nil, errors.Wrapf(errs.InvalidArgument, "entrypoint %q is not payable", entrypoint)
		}
	}

	switch entrypoint {
	case EntrypointWhitelisting:
		return nil, c.whitelisting(ctx, rctx, params)
	case EntrypointSetStatus:
		return nil, c.setStatus(ctx, rctx, params)
	case EntrypointSetFixed:
		return nil, c.setFixed(ctx, rctx)
	case EntrypointSetPjtoken:
		return nil, c.setPjtoken(ctx, rctx, params)
	case EntrypointSetTGE:
		return nil, c.setTGE(ctx, rctx, params)
	case EntrypointUserDeposit:
		return nil, c.userDeposit(ctx, rctx)
	case EntrypointOnReceivingCIS2:
		return nil, c.onReceivingCIS2(ctx, rctx, params)
	case EntrypointOvlClaim:
		return nil, c.ovlClaim(ctx, rctx)
	case EntrypointBbbClaim:
		return nil, c.bbbClaim(ctx, rctx)
	case EntrypointProjectClaim:
		return nil, c.projectClaim(ctx, rctx)
	case EntrypointUserClaim:
		return nil, c.userClaim(ctx, rctx, params)
	case EntrypointUserQuit:
		return nil, c.userQuit(ctx, rctx)
	case EntrypointView:
		return c.viewBytes(ctx, rctx)
	case EntrypointViewParticipants:
		return c.viewParticipantsBytes(ctx)
	case EntrypointViewWinUnits:
		return c.viewWinUnitsBytes(ctx, params)
	default:
		return nil, errors.Wrapf(errs.MissingEntrypoint, "sale contract has no entrypoint %q", entrypoint)
	}
}

func (c *Contract) SnapshotState() ([]byte, error) {
	return c.saleDg.Snapshot()
}

func (c *Contract) RestoreState(data []byte) error {
	return c.saleDg.Restore(data)
}

// whitelisting inserts fresh participant records while the sale is still in
// Prepare. Existing entries are never overwritten, so replaying the same list
// is harmless. The optional ready flag opens the sale for deposits.
func (c *Contract) whitelisting(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	if err := c.requireOwner(rctx); err != nil {
		return err
	}
	var whitelistParams WhitelistingParams
	if err := whitelistParams.UnmarshalParam(params); err != nil {
		return err
	}

	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if state.Status != StatusPrepare {
		return errors.Wrapf(ErrAlreadySaleStarted, "whitelisting in status %s", state.Status)
	}

	for _, entry := range whitelistParams.Entries {
		if !entry.Tier.IsValid() {
			return errors.Wrapf(errs.InvalidArgument, "invalid tier %d for %s", entry.Tier, entry.Account)
		}
		if _, err := c.saleDg.GetParticipant(ctx, entry.Account); err == nil {
			continue
		} else if !errors.Is(err, errs.NotFound) {
			return err
		}
		err := c.saleDg.PutParticipant(ctx, entry.Account, entity.UserState{
			Prior:    uint8(entry.Tier),
			TgtUnits: 1,
		})
		if err != nil {
			return err
		}
	}

	if whitelistParams.Ready {
		state.Status = StatusReady
		if err := c.saveState(ctx, state); err != nil {
			return err
		}
		logger.DebugContext(ctx, "sale opened for deposits", slogx.Stringer("self", rctx.Self()))
	}
	return nil
}

// setStatus is the owner's explicit override for operational recovery.
func (c *Contract) setStatus(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	if err := c.requireOwner(rctx); err != nil {
		return err
	}
	var statusParams SetStatusParams
	if err := statusParams.UnmarshalParam(params); err != nil {
		return err
	}
	if !statusParams.Status.IsValid() {
		return errors.Wrapf(errs.InvalidArgument, "invalid sale status %d", statusParams.Status)
	}

	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	state.Status = statusParams.Status
	return c.saveState(ctx, state)
}

// setFixed resolves the sale outcome once the deposit window has closed:
// Fixed when the softcap was reached, Suspend otherwise. Calling it again
// after the outcome is resolved is an error, not a re-evaluation.
func (c *Contract) setFixed(ctx context.Context, rctx chain.ReceiveContext) error {
	if err := c.requireOwner(rctx); err != nil {
		return err
	}

	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if !state.Schedule.IsSaleClosed(rctx.Now()) {
		return errors.Wrap(ErrSaleNotClosed, "setFixed before close")
	}
	switch state.Status {
	case StatusReady:
	case StatusFixed, StatusSuspend:
		return errors.Wrapf(ErrAlreadyFixed, "sale outcome is already %s", state.Status)
	default:
		return errors.Wrapf(ErrSaleNotReady, "setFixed in status %s", state.Status)
	}

	if state.Info.IsReachedSoftCap() {
		state.Status = StatusFixed
	} else {
		state.Status = StatusSuspend
	}
	logger.DebugContext(ctx, "sale outcome fixed",
		slogx.Stringer("status", state.Status),
		slogx.Uint64("appliedUnits", uint64(state.Info.AppliedUnits)))
	return c.saveState(ctx, state)
}

func (c *Contract) setPjtoken(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if err := c.requireProjAdmin(state, rctx); err != nil {
		return err
	}
	var tokenParams SetPjtokenParams
	if err := tokenParams.UnmarshalParam(params); err != nil {
		return err
	}
	if state.ProjectToken != nil {
		return errors.Wrap(ErrAlreadySet, "project token")
	}
	state.ProjectToken = &tokenParams.ProjectToken
	return c.saveState(ctx, state)
}

func (c *Contract) setTGE(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if err := c.requireProjAdmin(state, rctx); err != nil {
		return err
	}
	var tgeParams SetTGEParams
	if err := tgeParams.UnmarshalParam(params); err != nil {
		return err
	}
	if err := state.Schedule.SetVestingStart(tgeParams.VestingStart); err != nil {
		return err
	}
	return c.saveState(ctx, state)
}

func (c *Contract) requireOwner(rctx chain.ReceiveContext) error {
	sender := rctx.Sender()
	if !sender.IsAccount() || sender.Account != rctx.Owner() {
		return errors.Wrapf(errs.Unauthorized, "sender %s is not the contract owner", sender)
	}
	return nil
}

func (c *Contract) requireProjAdmin(state *SaleState, rctx chain.ReceiveContext) error {
	sender := rctx.Sender()
	if !sender.IsAccount() || sender.Account != state.ProjAdmin {
		return errors.Wrapf(errs.Unauthorized, "sender %s is not the project admin", sender)
	}
	return nil
}

// senderAccount rejects contract senders; participant entrypoints are
// account-only.
func senderAccount(rctx chain.ReceiveContext) (types.AccountAddress, error) {
	sender := rctx.Sender()
	if !sender.IsAccount() {
		return types.AccountAddress{}, errors.Wrapf(ErrContractNotAllowed, "sender %s", sender)
	}
	return sender.Account, nil
}
