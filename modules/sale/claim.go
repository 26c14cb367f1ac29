package sale

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

// calcVestingClaim walks the vesting tranches in ascending duration order and
// sums the newly unlocked share of base. Tranches below curInc were already
// paid and are skipped; the walk stops at the first still-locked tranche. The
// returned inc is the new tranche count for this claimant. A zero amount with
// inc == curInc is a legal outcome, not an error.
func calcVestingClaim(schedule *SaleSchedule, base types.TokenAmount, curInc uint8, now types.Timestamp) (types.TokenAmount, uint8, error) {
	if schedule.VestingStart == nil {
		return 0, 0, errors.Wrap(ErrNotSetTge, "vesting start is unset")
	}
	var (
		total types.TokenAmount
		inc   = curInc
	)
	for i, tranche := range schedule.VestingPeriod {
		unlockAt := schedule.VestingStart.AddDuration(tranche.Duration)
		if unlockAt.After(now) {
			break
		}
		if uint8(i) < curInc {
			continue
		}
		amount, err := base.MulPercent(tranche.Percent)
		if err != nil {
			return 0, 0, err
		}
		total, err = total.CheckedAdd(amount)
		if err != nil {
			return 0, 0, err
		}
		inc = uint8(i) + 1
	}
	return total, inc, nil
}

// claimPreflight is the shared claim precondition set: the sale outcome must
// be Fixed and both post-sale setters must have run.
func claimPreflight(state *SaleState) error {
	if state.Status != StatusFixed {
		return errors.Wrapf(ErrSaleNotFixed, "claim in status %s", state.Status)
	}
	if state.ProjectToken == nil {
		return errors.Wrap(ErrNotSetProjectToken, "claim before setPjtoken")
	}
	if state.Schedule.VestingStart == nil {
		return errors.Wrap(ErrNotSetTge, "claim before setTGE")
	}
	return nil
}

// shareBase is the payout base for the fee/project roles:
// totalUnits * tokenPerUnit * share / 100 with 128-bit intermediates.
func shareBase(state *SaleState, share types.Percentage) (types.TokenAmount, error) {
	raised, err := state.Info.TokenPerUnit.CheckedMulUnits(state.Info.TotalUnits())
	if err != nil {
		return 0, err
	}
	return raised.MulPercent(share)
}

// payoutToken orders the project token contract to move amount to the
// receiver. Zero amounts never leave the contract.
func (c *Contract) payoutToken(ctx context.Context, rctx chain.ReceiveContext, state *SaleState, to types.Receiver, amount types.TokenAmount) error {
	if amount == 0 {
		return nil
	}
	if _, err := to.Resolve(); err != nil {
		return err
	}
	params, err := TokenTransferParams{Amount: amount, To: to}.MarshalParam()
	if err != nil {
		return err
	}
	if _, err := rctx.InvokeContract(ctx, *state.ProjectToken, TokenTransferEntrypoint, params, 0); err != nil {
		return err
	}
	return nil
}

// ovlClaim pays the platform fee share to the contract owner.
func (c *Contract) ovlClaim(ctx context.Context, rctx chain.ReceiveContext) error {
	if err := c.requireOwner(rctx); err != nil {
		return err
	}
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if err := claimPreflight(state); err != nil {
		return err
	}
	base, err := shareBase(state, state.OvlShare)
	if err != nil {
		return err
	}
	amount, inc, err := calcVestingClaim(&state.Schedule, base, state.OvlClaimedInc, rctx.Now())
	if err != nil {
		return err
	}
	if err := c.payoutToken(ctx, rctx, state, types.NewAccountReceiver(rctx.Owner()), amount); err != nil {
		return err
	}
	state.OvlClaimedInc = inc
	logClaim(ctx, "ovl", amount, inc)
	return c.saveState(ctx, state)
}

// bbbClaim pays the partner fee share to the configured partner address.
func (c *Contract) bbbClaim(ctx context.Context, rctx chain.ReceiveContext) error {
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	sender := rctx.Sender()
	if !sender.IsAccount() || sender.Account != state.BbbAddr {
		return errors.Wrapf(errs.Unauthorized, "sender %s is not the partner address", sender)
	}
	if err := claimPreflight(state); err != nil {
		return err
	}
	base, err := shareBase(state, state.BbbShare)
	if err != nil {
		return err
	}
	amount, inc, err := calcVestingClaim(&state.Schedule, base, state.BbbClaimedInc, rctx.Now())
	if err != nil {
		return err
	}
	if err := c.payoutToken(ctx, rctx, state, types.NewAccountReceiver(state.BbbAddr), amount); err != nil {
		return err
	}
	state.BbbClaimedInc = inc
	logClaim(ctx, "bbb", amount, inc)
	return c.saveState(ctx, state)
}

// projectClaim pays the remainder share to the project admin.
func (c *Contract) projectClaim(ctx context.Context, rctx chain.ReceiveContext) error {
	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if err := c.requireProjAdmin(state, rctx); err != nil {
		return err
	}
	if err := claimPreflight(state); err != nil {
		return err
	}
	base, err := shareBase(state, state.ProjectShare())
	if err != nil {
		return err
	}
	amount, inc, err := calcVestingClaim(&state.Schedule, base, state.ProjectClaimedInc, rctx.Now())
	if err != nil {
		return err
	}
	if err := c.payoutToken(ctx, rctx, state, types.NewAccountReceiver(state.ProjAdmin), amount); err != nil {
		return err
	}
	state.ProjectClaimedInc = inc
	logClaim(ctx, "project", amount, inc)
	return c.saveState(ctx, state)
}

// userClaim pays a participant their unlocked allocation:
// winUnits * tokenPerUnit walked through the vesting schedule.
func (c *Contract) userClaim(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	claimant, err := senderAccount(rctx)
	if err != nil {
		return err
	}
	var claimParams UserClaimParams
	if len(params) > 0 {
		if err := claimParams.UnmarshalParam(params); err != nil {
			return err
		}
	}

	state, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if err := claimPreflight(state); err != nil {
		return err
	}

	user, err := c.saleDg.GetParticipant(ctx, claimant)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errors.Wrapf(ErrUnknownParticipant, "account %s", claimant)
		}
		return err
	}

	base, err := state.Info.TokenPerUnit.CheckedMulUnits(user.WinUnits)
	if err != nil {
		return err
	}
	amount, inc, err := calcVestingClaim(&state.Schedule, base, user.ClaimedInc, rctx.Now())
	if err != nil {
		return err
	}

	receiver := types.NewAccountReceiver(claimant)
	if claimParams.Receiver != nil {
		receiver = *claimParams.Receiver
	}
	if err := c.payoutToken(ctx, rctx, state, receiver, amount); err != nil {
		return err
	}

	user.ClaimedInc = inc
	paid, err := user.TokenPaid.CheckedAdd(amount)
	if err != nil {
		return err
	}
	user.TokenPaid = paid
	if err := c.saleDg.PutParticipant(ctx, claimant, *user); err != nil {
		return err
	}
	logClaim(ctx, "user", amount, inc)
	return nil
}

func logClaim(ctx context.Context, role string, amount types.TokenAmount, inc uint8) {
	logger.DebugContext(ctx, "processed vesting claim",
		slogx.String("role", role),
		slogx.String("amount", amount.Decimal().String()),
		slogx.Uint64("claimedInc", uint64(inc)))
}
