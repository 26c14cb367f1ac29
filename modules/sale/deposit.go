package sale

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/sale/internal/entity"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

// userDeposit is the native-currency deposit entrypoint. The attached payment
// must equal the unit price times the granted units exactly.
func (c *Contract) userDeposit(ctx context.Context, rctx chain.ReceiveContext) error {
	if c.variant != VariantCCD {
		return errors.Wrap(errs.MissingEntrypoint, "token-denominated sale takes deposits through onReceivingCIS2")
	}
	depositor, err := senderAccount(rctx)
	if err != nil {
		return err
	}
	return c.acceptDeposit(ctx, rctx, depositor, rctx.AmountPaid())
}

// onReceivingCIS2 is the token-denominated deposit hook. Only the configured
// deposit token contract may call it; in particular the sale contract itself
// is rejected so a reentrant self-call cannot spoof a deposit.
func (c *Contract) onReceivingCIS2(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	if c.variant != VariantCIS2 {
		return errors.Wrap(errs.MissingEntrypoint, "native-currency sale takes deposits through userDeposit")
	}
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	sender := rctx.Sender()
	if !sender.IsContract() {
		return errors.Wrapf(errs.Unauthorized, "deposit hook called by account %s", sender)
	}
	if sender.Contract == rctx.Self() {
		return errors.Wrap(errs.Unauthorized, "deposit hook called by the sale contract itself")
	}
	if state.DepositToken == nil || sender.Contract != *state.DepositToken {
		return errors.Wrapf(errs.Unauthorized, "deposit hook called by %s, not the deposit token", sender)
	}

	var hookParams OnReceivingCIS2Params
	if err := hookParams.UnmarshalParam(params); err != nil {
		return err
	}
	if !hookParams.From.IsAccount() {
		return errors.Wrapf(ErrContractNotAllowed, "depositor %s", hookParams.From)
	}
	return c.acceptDeposit(ctx, rctx, hookParams.From.Account, hookParams.Amount)
}

// acceptDeposit runs the shared resolution algorithm: tier eligibility,
// partial fill against remaining room, and exact payment matching. Deposits
// are first come first served; each call consumes room atomically.
func (c *Contract) acceptDeposit(ctx context.Context, rctx chain.ReceiveContext, depositor types.AccountAddress, paid types.Amount) error {
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if state.Status != StatusReady {
		return errors.Wrapf(ErrSaleNotReady, "deposit in status %s", state.Status)
	}
	now := rctx.Now()
	if state.Schedule.IsSaleClosed(now) {
		return errors.Wrap(ErrAlreadySaleClosed, "deposit after close")
	}
	currentTier, onSale := state.Schedule.CheckSalePriority(now)
	if !onSale {
		return errors.Wrap(ErrNotOnSale, "no phase is open")
	}

	user, err := c.saleDg.GetParticipant(ctx, depositor)
	switch {
	case err == nil:
	case errors.Is(err, errs.NotFound):
		// Unlisted accounts may join only once the ANY phase is open.
		if currentTier != TierAny {
			return errors.Wrapf(ErrNotWhitelisted, "account %s in %s phase", depositor, currentTier)
		}
		user = &entity.UserState{Prior: uint8(TierAny), TgtUnits: 1}
	default:
		return err
	}

	if user.Deposit > 0 || user.WinUnits > 0 {
		return errors.Wrapf(ErrAlreadyDeposited, "account %s", depositor)
	}
	if !Tier(user.Prior).AllowsPhase(currentTier) {
		return errors.Wrapf(ErrTierNotOpen, "tier %s during %s phase", Tier(user.Prior), currentTier)
	}

	room := state.Info.RoomToApply()
	if room == 0 {
		return errors.Wrap(ErrAlreadySaleClosed, "sale is fully allocated")
	}
	win := types.MinUnits(user.TgtUnits, room)

	pricePerUnit, err := state.Info.PricePerUnit()
	if err != nil {
		return err
	}
	expected, err := pricePerUnit.CheckedMulUnits(win)
	if err != nil {
		return err
	}
	if paid != expected {
		return errors.Wrapf(ErrInvalidPaidAmount, "paid %d, unit price requires %d", paid, expected)
	}

	if err := state.Info.ApplyUnits(win); err != nil {
		return err
	}
	user.Deposit = paid
	user.WinUnits = win
	if err := c.saleDg.PutParticipant(ctx, depositor, *user); err != nil {
		return err
	}
	if err := c.saveState(ctx, state); err != nil {
		return err
	}

	logger.DebugContext(ctx, "accepted deposit",
		slogx.Stringer("depositor", depositor),
		slogx.Uint64("winUnits", uint64(win)),
		slogx.Uint64("appliedUnits", uint64(state.Info.AppliedUnits)))
	return nil
}

// userQuit lets a participant withdraw after the sale closed. Under Suspend
// the full deposit is refunded and the entry removed; once Fixed, the
// allocation is binding and quitting is rejected.
func (c *Contract) userQuit(ctx context.Context, rctx chain.ReceiveContext) error {
	participant, err := senderAccount(rctx)
	if err != nil {
		return err
	}
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if !state.Schedule.IsSaleClosed(rctx.Now()) {
		return errors.Wrap(ErrSaleNotClosed, "quit before close")
	}
	switch state.Status {
	case StatusSuspend:
	case StatusFixed:
		return errors.Wrapf(ErrQuitNotAllowed, "account %s", participant)
	default:
		return errors.Wrapf(ErrSaleNotFixed, "quit in status %s", state.Status)
	}

	user, err := c.saleDg.GetParticipant(ctx, participant)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errors.Wrapf(ErrUnknownParticipant, "account %s", participant)
		}
		return err
	}

	if user.Deposit > 0 {
		if err := c.refund(ctx, rctx, state, participant, user.Deposit); err != nil {
			return err
		}
	}
	state.Info.ReleaseUnits(user.WinUnits)
	if err := c.saleDg.DeleteParticipant(ctx, participant); err != nil {
		return err
	}
	return c.saveState(ctx, state)
}

// refund returns a deposit on the path matching the variant: a native
// transfer, or a token transfer order against the deposit token contract.
func (c *Contract) refund(ctx context.Context, rctx chain.ReceiveContext, state *SaleState, to types.AccountAddress, amount types.Amount) error {
	if c.variant == VariantCCD {
		return rctx.Transfer(to, amount)
	}
	if state.DepositToken == nil {
		return errors.Wrap(ErrInappropriate, "deposit token is not set")
	}
	params, err := TokenTransferParams{
		Amount: types.TokenAmount(amount),
		To:     types.NewAccountReceiver(to),
	}.MarshalParam()
	if err != nil {
		return err
	}
	_, err = rctx.InvokeContract(ctx, *state.DepositToken, TokenTransferEntrypoint, params, 0)
	return err
}
