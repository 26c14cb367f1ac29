package operator

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/operator/datagateway"
	"github.com/ovl-network/ido-engine/modules/operator/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterStub is the proxy target: one settable value.
type counterStub struct {
	Value uint64 `json:"value"`
}

func (c *counterStub) Init(_ context.Context, _ chain.InitContext, _ []byte) error {
	return nil
}

func (c *counterStub) Receive(_ context.Context, _ chain.ReceiveContext, entrypoint string, params []byte) ([]byte, error) {
	switch entrypoint {
	case "set":
		c.Value = binary.LittleEndian.Uint64(params)
		return nil, nil
	default:
		return nil, errors.Wrapf(errs.MissingEntrypoint, "no entrypoint %q", entrypoint)
	}
}

func (c *counterStub) SnapshotState() ([]byte, error) {
	return json.Marshal(c)
}

func (c *counterStub) RestoreState(data []byte) error {
	return errors.WithStack(json.Unmarshal(data, c))
}

type signer struct {
	account types.AccountAddress
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

func newSigner(b byte) signer {
	var seed [ed25519.SeedSize]byte
	seed[0] = b
	private := ed25519.NewKeyFromSeed(seed[:])
	var account types.AccountAddress
	account[0] = b
	return signer{
		account: account,
		public:  private.Public().(ed25519.PublicKey),
		private: private,
	}
}

type operatorFixture struct {
	chain        *chain.Chain
	operatorAddr types.ContractAddress
	target       *counterStub
	targetAddr   types.ContractAddress
	caller       types.AccountAddress
	operators    []signer
}

func newOperatorFixture(t *testing.T) *operatorFixture {
	t.Helper()
	ctx := context.Background()

	f := &operatorFixture{
		chain:     chain.New(),
		caller:    mustAccount(100),
		operators: []signer{newSigner(1), newSigner(2)},
	}
	require.NoError(t, f.chain.CreateAccount(f.caller, 1_000_000))

	f.target = &counterStub{}
	targetAddr, err := f.chain.Deploy(ctx, "counter", f.caller, f.target, nil, 0)
	require.NoError(t, err)
	f.targetAddr = targetAddr

	initParams, err := InitParams{Operators: []OperatorEntry{
		{Account: f.operators[0].account, PublicKey: f.operators[0].public},
		{Account: f.operators[1].account, PublicKey: f.operators[1].public},
	}}.MarshalParam()
	require.NoError(t, err)
	operatorAddr, err := f.chain.Deploy(ctx, "operator", f.caller, New(memory.NewRepository()), initParams, 0)
	require.NoError(t, err)
	f.operatorAddr = operatorAddr
	return f
}

func mustAccount(b byte) types.AccountAddress {
	var addr types.AccountAddress
	addr[0] = b
	return addr
}

func (f *operatorFixture) permit(t *testing.T, entrypoint string, action PermitAction, payload []byte, expiry types.Timestamp) PermitMessage {
	t.Helper()
	return PermitMessage{
		ContractAddress: f.operatorAddr,
		Entrypoint:      entrypoint,
		Action:          action,
		Timestamp:       expiry,
		Payload:         payload,
	}
}

func (f *operatorFixture) sign(t *testing.T, message PermitMessage, signers ...signer) []byte {
	t.Helper()
	digest, err := message.Digest()
	require.NoError(t, err)
	signatures := make(SignatureSet, len(signers))
	for _, s := range signers {
		signatures[s.account] = ed25519.Sign(s.private, digest[:])
	}
	params, err := ParamsWithSignatures{Signatures: signatures, Message: message}.MarshalParam()
	require.NoError(t, err)
	return params
}

func setParams(v uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], v)
	return out[:]
}

func TestInitRequiresTwoOperators(t *testing.T) {
	ctx := context.Background()
	c := chain.New()
	owner := mustAccount(100)
	require.NoError(t, c.CreateAccount(owner, 1_000))
	op := newSigner(1)

	params, err := InitParams{Operators: []OperatorEntry{
		{Account: op.account, PublicKey: op.public},
	}}.MarshalParam()
	require.NoError(t, err)
	_, err = c.Deploy(ctx, "operator", owner, New(memory.NewRepository()), params, 0)
	assert.ErrorIs(t, err, errs.InvalidArgument)

	params, err = InitParams{Operators: []OperatorEntry{
		{Account: op.account, PublicKey: op.public},
		{Account: op.account, PublicKey: op.public},
	}}.MarshalParam()
	require.NoError(t, err)
	_, err = c.Deploy(ctx, "operator", owner, New(memory.NewRepository()), params, 0)
	assert.ErrorIs(t, err, ErrAccountDuplicated)
}

func TestInvokeWithQuorum(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)

	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), f.target.Value)
}

func TestInvokeRejectsInsufficientQuorum(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)
	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)

	// A single valid signature is not a quorum.
	params := f.sign(t, message, f.operators[0])
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.Unauthorized)

	// A garbage signature from a registered operator is skipped, not counted.
	digest, err := message.Digest()
	require.NoError(t, err)
	signatures := SignatureSet{
		f.operators[0].account: ed25519.Sign(f.operators[0].private, digest[:]),
		f.operators[1].account: make([]byte, ed25519.SignatureSize),
	}
	params, err = ParamsWithSignatures{Signatures: signatures, Message: message}.MarshalParam()
	require.NoError(t, err)
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.Unauthorized)

	assert.Equal(t, uint64(0), f.target.Value)
}

func TestInvokeUnknownSignerFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)
	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)

	outsider := newSigner(77)
	params := f.sign(t, message, f.operators[0], f.operators[1], outsider)
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, ErrNoPublicKey)
	assert.Equal(t, uint64(0), f.target.Value)
}

func TestInvokeExpiredPermit(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)
	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])

	// Validity is strict: now must stay below the expiry ceiling.
	f.chain.SetTime(1_000)
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.Expired)
}

func TestPermitBindsActionContractAndEntrypoint(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)

	// An invoke permit cannot drive the key-management entrypoints.
	message := f.permit(t, EntrypointAddOperatorKeys, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointAddOperatorKeys, params, 0)
	assert.ErrorIs(t, err, errs.Unauthorized)

	// A permit for another contract instance is refused.
	message = f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)
	message.ContractAddress = types.ContractAddress{Index: 99}
	params = f.sign(t, message, f.operators[0], f.operators[1])
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.Unauthorized)

	// A permit for another entrypoint is refused.
	message = f.permit(t, EntrypointRemoveOperatorKeys, NewInvokeAction(f.targetAddr, "set"), setParams(9), 1_000)
	params = f.sign(t, message, f.operators[0], f.operators[1])
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.Unauthorized)
}

func TestAddAndRemoveOperatorKeys(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)
	third := newSigner(3)

	payload, err := AddKeyPayload{Account: third.account, PublicKey: third.public}.MarshalParam()
	require.NoError(t, err)
	message := f.permit(t, EntrypointAddOperatorKeys, NewAddKeyAction(), payload, 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointAddOperatorKeys, params, 0)
	require.NoError(t, err)

	result, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointViewOperators, nil, 0)
	require.NoError(t, err)
	var operators []datagateway.Operator
	require.NoError(t, json.Unmarshal(result, &operators))
	assert.Len(t, operators, 3)

	// Registering the same account twice is rejected.
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointAddOperatorKeys, params, 0)
	assert.ErrorIs(t, err, ErrAccountDuplicated)

	// The new operator's signature now counts toward the quorum.
	invokeMessage := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(7), 1_000)
	invokeParams := f.sign(t, invokeMessage, f.operators[1], third)
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, invokeParams, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), f.target.Value)

	removePayload, err := RemoveKeyPayload{Account: third.account}.MarshalParam()
	require.NoError(t, err)
	removeMessage := f.permit(t, EntrypointRemoveOperatorKeys, NewRemoveKeyAction(), removePayload, 1_000)
	removeParams := f.sign(t, removeMessage, f.operators[0], f.operators[1])
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointRemoveOperatorKeys, removeParams, 0)
	require.NoError(t, err)

	// Removing an absent account is a silent no-op, so a replay succeeds.
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointRemoveOperatorKeys, removeParams, 0)
	require.NoError(t, err)

	// The removed operator's signature fails the permit closed.
	invokeMessage = f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(8), 1_000)
	invokeParams = f.sign(t, invokeMessage, f.operators[1], third)
	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, invokeParams, 0)
	assert.ErrorIs(t, err, ErrNoPublicKey)
}

func TestInvokeRollsBackOnCalleeFailure(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)

	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "noSuchEntrypoint"), setParams(9), 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 0)
	assert.ErrorIs(t, err, errs.MissingEntrypoint)
	assert.Equal(t, uint64(0), f.target.Value)
}

func TestInvokeForwardsPayment(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)

	message := f.permit(t, EntrypointInvoke, NewInvokeAction(f.targetAddr, "set"), setParams(5), 1_000)
	params := f.sign(t, message, f.operators[0], f.operators[1])
	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointInvoke, params, 300)
	require.NoError(t, err)

	operatorBalance, err := f.chain.ContractBalance(f.operatorAddr)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(0), operatorBalance)
	targetBalance, err := f.chain.ContractBalance(f.targetAddr)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(300), targetBalance)
}

func TestNonPayableEntrypoints(t *testing.T) {
	ctx := context.Background()
	f := newOperatorFixture(t)

	_, err := f.chain.Update(ctx, f.caller, f.operatorAddr, EntrypointViewOperators, nil, 100)
	assert.ErrorIs(t, err, errs.InvalidArgument)

	_, err = f.chain.Update(ctx, f.caller, f.operatorAddr, "noSuchEntrypoint", nil, 0)
	assert.ErrorIs(t, err, errs.MissingEntrypoint)
}
