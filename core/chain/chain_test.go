package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterContract is a minimal host exerciser: it stores one value and can
// mutate it, fail after mutating, forward calls, burn energy, and pay out.
type counterContract struct {
	Value uint64 `json:"value"`
}

func (c *counterContract) Init(_ context.Context, _ InitContext, params []byte) error {
	if len(params) == 8 {
		c.Value = binary.LittleEndian.Uint64(params)
	}
	return nil
}

func (c *counterContract) Receive(ctx context.Context, rctx ReceiveContext, entrypoint string, params []byte) ([]byte, error) {
	switch entrypoint {
	case "set":
		c.Value = binary.LittleEndian.Uint64(params)
		return nil, nil
	case "setThenFail":
		c.Value = binary.LittleEndian.Uint64(params)
		return nil, errors.New("deliberate failure")
	case "get":
		var out [8]byte
		binary.LittleEndian.PutUint64(out[:], c.Value)
		return out[:], nil
	case "fail":
		return nil, errors.New("deliberate failure")
	case "forward":
		// params: target index u64, entrypoint length u8, entrypoint, callee params
		target := types.ContractAddress{Index: binary.LittleEndian.Uint64(params[:8])}
		n := int(params[8])
		return rctx.InvokeContract(ctx, target, string(params[9:9+n]), params[9+n:], 0)
	case "forwardThenFail":
		target := types.ContractAddress{Index: binary.LittleEndian.Uint64(params[:8])}
		if _, err := rctx.InvokeContract(ctx, target, "set", params[8:], 0); err != nil {
			return nil, err
		}
		return nil, errors.New("fail after nested call")
	case "burn":
		return nil, rctx.Tick(binary.LittleEndian.Uint64(params))
	case "payout":
		var to types.AccountAddress
		copy(to[:], params[:32])
		amount := types.Amount(binary.LittleEndian.Uint64(params[32:]))
		return nil, rctx.Transfer(to, amount)
	default:
		return nil, errors.Wrapf(errs.MissingEntrypoint, "no entrypoint %q", entrypoint)
	}
}

func (c *counterContract) SnapshotState() ([]byte, error) {
	return json.Marshal(c)
}

func (c *counterContract) RestoreState(data []byte) error {
	return errors.WithStack(json.Unmarshal(data, c))
}

func testAccount(b byte) types.AccountAddress {
	var addr types.AccountAddress
	addr[0] = b
	return addr
}

func u64Param(v uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], v)
	return out[:]
}

func TestUpdateCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	counter := &counterContract{}
	addr, err := c.Deploy(ctx, "counter", owner, counter, u64Param(5), 100)
	require.NoError(t, err)

	balance, err := c.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(900), balance)
	contractBalance, err := c.ContractBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(100), contractBalance)

	_, err = c.Update(ctx, owner, addr, "set", u64Param(9), 0)
	require.NoError(t, err)
	result, err := c.Update(ctx, owner, addr, "get", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, u64Param(9), result)
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	counter := &counterContract{}
	addr, err := c.Deploy(ctx, "counter", owner, counter, u64Param(5), 0)
	require.NoError(t, err)

	// The attached payment and the state mutation both revert.
	_, err = c.Update(ctx, owner, addr, "setThenFail", u64Param(9), 50)
	require.Error(t, err)

	assert.Equal(t, uint64(5), counter.Value)
	balance, err := c.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(1_000), balance)
	contractBalance, err := c.ContractBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(0), contractBalance)
}

func TestDeployFailureLeavesNoInstance(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	counter := &counterContract{}
	_, err := c.Deploy(ctx, "counter", owner, counter, u64Param(1), 2_000)
	assert.ErrorIs(t, err, errs.AmountTooLarge)

	_, _, err = c.FindContract("counter")
	assert.ErrorIs(t, err, errs.MissingContract)
	balance, err := c.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(1_000), balance)
}

func TestNestedInvokeRollback(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	callee := &counterContract{}
	calleeAddr, err := c.Deploy(ctx, "callee", owner, callee, u64Param(5), 0)
	require.NoError(t, err)
	caller := &counterContract{}
	callerAddr, err := c.Deploy(ctx, "caller", owner, caller, nil, 0)
	require.NoError(t, err)

	// The nested set succeeds but the caller fails afterwards; the callee's
	// mutation must not survive.
	params := append(u64Param(calleeAddr.Index), u64Param(9)...)
	_, err = c.Update(ctx, owner, callerAddr, "forwardThenFail", params, 0)
	require.Error(t, err)
	assert.Equal(t, uint64(5), callee.Value)
}

func forwardParams(target types.ContractAddress, entrypoint string, params []byte) []byte {
	out := u64Param(target.Index)
	out = append(out, byte(len(entrypoint)))
	out = append(out, entrypoint...)
	return append(out, params...)
}

func TestInvokeFailureTranslation(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	callee := &counterContract{}
	calleeAddr, err := c.Deploy(ctx, "callee", owner, callee, nil, 0)
	require.NoError(t, err)
	caller := &counterContract{}
	callerAddr, err := c.Deploy(ctx, "caller", owner, caller, nil, 0)
	require.NoError(t, err)

	// Missing entrypoints keep their classification through the proxy hop.
	_, err = c.Update(ctx, owner, callerAddr, "forward", forwardParams(calleeAddr, "noSuchEntrypoint", nil), 0)
	assert.ErrorIs(t, err, errs.MissingEntrypoint)

	// An arbitrary callee error surfaces as a message failure.
	_, err = c.Update(ctx, owner, callerAddr, "forward", forwardParams(calleeAddr, "fail", nil), 0)
	assert.ErrorIs(t, err, errs.MessageFailed)
}

func TestEnergyExhaustion(t *testing.T) {
	ctx := context.Background()
	c := New(WithEnergyBudget(2_000))
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	counter := &counterContract{}
	addr, err := c.Deploy(ctx, "counter", owner, counter, u64Param(5), 0)
	require.NoError(t, err)

	_, err = c.Update(ctx, owner, addr, "burn", u64Param(10_000), 0)
	assert.ErrorIs(t, err, errs.OutOfEnergy)

	// Deploy itself is metered too.
	tight := New(WithEnergyBudget(500))
	require.NoError(t, tight.CreateAccount(owner, 1_000))
	_, err = tight.Deploy(ctx, "counter", owner, &counterContract{}, nil, 0)
	assert.ErrorIs(t, err, errs.OutOfEnergy)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	payee := testAccount(2)
	require.NoError(t, c.CreateAccount(owner, 1_000))
	require.NoError(t, c.CreateAccount(payee, 0))

	counter := &counterContract{}
	addr, err := c.Deploy(ctx, "counter", owner, counter, nil, 500)
	require.NoError(t, err)

	params := append(append([]byte{}, payee[:]...), u64Param(200)...)
	_, err = c.Update(ctx, owner, addr, "payout", params, 0)
	require.NoError(t, err)
	balance, err := c.Balance(payee)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(200), balance)

	// Overdraw fails and rolls back.
	params = append(append([]byte{}, payee[:]...), u64Param(10_000)...)
	_, err = c.Update(ctx, owner, addr, "payout", params, 0)
	assert.ErrorIs(t, err, errs.AmountTooLarge)
	balance, err = c.Balance(payee)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(200), balance)
}

func TestStateSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(WithTime(42))
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))

	counter := &counterContract{}
	addr, err := c.Deploy(ctx, "counter", owner, counter, u64Param(5), 100)
	require.NoError(t, err)
	_, err = c.Update(ctx, owner, addr, "set", u64Param(9), 0)
	require.NoError(t, err)

	snap, err := c.StateSnapshot()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded StateSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	loaded, err := LoadStateSnapshot(&decoded, map[string]ContractFactory{
		"counter": func() Contract { return &counterContract{} },
	})
	require.NoError(t, err)

	assert.Equal(t, types.Timestamp(42), loaded.Now())
	result, err := loaded.Update(ctx, owner, addr, "get", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, u64Param(9), result)
	balance, err := loaded.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(900), balance)
}

func TestLoadStateSnapshotUnknownFactory(t *testing.T) {
	ctx := context.Background()
	c := New()
	owner := testAccount(1)
	require.NoError(t, c.CreateAccount(owner, 1_000))
	_, err := c.Deploy(ctx, "counter", owner, &counterContract{}, nil, 0)
	require.NoError(t, err)

	snap, err := c.StateSnapshot()
	require.NoError(t, err)
	_, err = LoadStateSnapshot(snap, map[string]ContractFactory{})
	assert.ErrorIs(t, err, errs.Unsupported)
}
