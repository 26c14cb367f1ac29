// Package operator implements the multisig operator registry: a flat map of
// account to Ed25519 key, mutated only under a quorum of detached signatures
// over a canonical permit message, plus a proxy invoke entrypoint executing
// signed actions against other contracts.
package operator

import (
	"context"
	"crypto/ed25519"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/modules/operator/datagateway"
	"github.com/ovl-network/ido-engine/pkg/logger"
	"github.com/ovl-network/ido-engine/pkg/logger/slogx"
)

const (
	EntrypointAddOperatorKeys    = "addOperatorKeys"
	EntrypointRemoveOperatorKeys = "removeOperatorKeys"
	EntrypointInvoke             = "invoke"
	EntrypointViewOperators      = "viewOperators"
)

// Contract is the operator registry bound to an injected key store.
type Contract struct {
	operatorDg datagateway.OperatorDataGateway
}

func New(operatorDg datagateway.OperatorDataGateway) *Contract {
	return &Contract{operatorDg: operatorDg}
}

var _ chain.Contract = (*Contract)(nil)

func (c *Contract) Init(ctx context.Context, ictx chain.InitContext, params []byte) error {
	var initParams InitParams
	if err := initParams.UnmarshalParam(params); err != nil {
		return err
	}
	if len(initParams.Operators) < 2 {
		return errors.Wrapf(errs.InvalidArgument, "operator set needs at least 2 members, got %d", len(initParams.Operators))
	}
	for _, operator := range initParams.Operators {
		if _, err := c.operatorDg.GetOperatorKey(ctx, operator.Account); err == nil {
			return errors.Wrapf(ErrAccountDuplicated, "account %s", operator.Account)
		} else if !errors.Is(err, errs.NotFound) {
			return err
		}
		if err := c.operatorDg.PutOperatorKey(ctx, operator.Account, operator.PublicKey); err != nil {
			return err
		}
	}
	logger.DebugContext(ctx, "initialized operator registry",
		slogx.Stringer("self", ictx.Self()),
		slogx.Int("operators", len(initParams.Operators)))
	return nil
}

func (c *Contract) Receive(ctx context.Context, rctx chain.ReceiveContext, entrypoint string, params []byte) ([]byte, error) {
	if entrypoint != EntrypointInvoke && rctx.AmountPaid() != 0 {
		return nil, errors.Wrapf(errs.InvalidArgument, "entrypoint %q is not payable", entrypoint)
	}

	switch entrypoint {
	case EntrypointAddOperatorKeys:
		return nil, c.addOperatorKeys(ctx, rctx, params)
	case EntrypointRemoveOperatorKeys:
		return nil, c.removeOperatorKeys(ctx, rctx, params)
	case EntrypointInvoke:
		return c.invoke(ctx, rctx, params)
	case EntrypointViewOperators:
		return c.viewOperators(ctx)
	default:
		return nil, errors.Wrapf(errs.MissingEntrypoint, "operator contract has no entrypoint %q", entrypoint)
	}
}

func (c *Contract) SnapshotState() ([]byte, error) {
	return c.operatorDg.Snapshot()
}

func (c *Contract) RestoreState(data []byte) error {
	return c.operatorDg.Restore(data)
}

// checkAuth is the full permit verification chain. Order matters: the cheap
// replay defences (action, contract, entrypoint, expiry) run before any
// signature verification. An individually invalid signature is skipped, but
// a signer with no registered key fails the whole permit closed.
func (c *Contract) checkAuth(ctx context.Context, rctx chain.ReceiveContext, expected PermitActionKind, params ParamsWithSignatures) error {
	message := params.Message
	if message.Action.Kind != expected {
		return errors.Wrapf(errs.Unauthorized, "permit action %s, entrypoint expects %s", message.Action.Kind, expected)
	}
	if message.ContractAddress != rctx.Self() {
		return errors.Wrapf(errs.Unauthorized, "permit addresses contract %s, not %s", message.ContractAddress, rctx.Self())
	}
	if message.Entrypoint != rctx.Entrypoint() {
		return errors.Wrapf(errs.Unauthorized, "permit targets entrypoint %q, not %q", message.Entrypoint, rctx.Entrypoint())
	}
	if rctx.Now() >= message.Timestamp {
		return errors.Wrapf(errs.Expired, "permit expired at %d, now %d", message.Timestamp, rctx.Now())
	}

	digest, err := message.Digest()
	if err != nil {
		return err
	}

	legitimate := 0
	for account, signature := range params.Signatures {
		key, err := c.operatorDg.GetOperatorKey(ctx, account)
		if err != nil {
			if errors.Is(err, errs.NotFound) {
				return errors.Wrapf(ErrNoPublicKey, "signer %s", account)
			}
			return err
		}
		if len(signature) != ed25519.SignatureSize {
			continue
		}
		if ed25519.Verify(key, digest[:], signature) {
			legitimate++
		}
	}
	if legitimate <= 1 {
		return errors.Wrapf(errs.Unauthorized, "%d valid signatures, quorum requires more than one", legitimate)
	}
	return nil
}

func (c *Contract) addOperatorKeys(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	var signedParams ParamsWithSignatures
	if err := signedParams.UnmarshalParam(params); err != nil {
		return err
	}
	if err := c.checkAuth(ctx, rctx, ActionAddKey, signedParams); err != nil {
		return err
	}

	var payload AddKeyPayload
	if err := payload.UnmarshalParam(signedParams.Message.Payload); err != nil {
		return err
	}
	if _, err := c.operatorDg.GetOperatorKey(ctx, payload.Account); err == nil {
		return errors.Wrapf(ErrAccountDuplicated, "account %s", payload.Account)
	} else if !errors.Is(err, errs.NotFound) {
		return err
	}
	if err := c.operatorDg.PutOperatorKey(ctx, payload.Account, payload.PublicKey); err != nil {
		return err
	}
	logger.DebugContext(ctx, "registered operator key", slogx.Stringer("account", payload.Account))
	return nil
}

// removeOperatorKeys removes unconditionally; removing an unregistered
// account is a silent no-op, the deliberate asymmetry with add.
func (c *Contract) removeOperatorKeys(ctx context.Context, rctx chain.ReceiveContext, params []byte) error {
	var signedParams ParamsWithSignatures
	if err := signedParams.UnmarshalParam(params); err != nil {
		return err
	}
	if err := c.checkAuth(ctx, rctx, ActionRemoveKey, signedParams); err != nil {
		return err
	}

	var payload RemoveKeyPayload
	if err := payload.UnmarshalParam(signedParams.Message.Payload); err != nil {
		return err
	}
	if err := c.operatorDg.DeleteOperatorKey(ctx, payload.Account); err != nil {
		return err
	}
	logger.DebugContext(ctx, "removed operator key", slogx.Stringer("account", payload.Account))
	return nil
}

// invoke executes the signed proxy call against the target contract, passing
// the permit payload through as the callee's parameter and forwarding any
// attached payment. A callee failure rolls the whole call back in the host.
func (c *Contract) invoke(ctx context.Context, rctx chain.ReceiveContext, params []byte) ([]byte, error) {
	var signedParams ParamsWithSignatures
	if err := signedParams.UnmarshalParam(params); err != nil {
		return nil, err
	}
	if err := c.checkAuth(ctx, rctx, ActionInvoke, signedParams); err != nil {
		return nil, err
	}

	action := signedParams.Message.Action
	if action.Target == nil {
		return nil, errors.Wrap(errs.InvalidArgument, "invoke permit carries no target")
	}
	result, err := rctx.InvokeContract(ctx, *action.Target, action.Entrypoint, signedParams.Message.Payload, rctx.AmountPaid())
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "executed proxy invoke",
		slogx.Stringer("target", *action.Target),
		slogx.String("entrypoint", action.Entrypoint))
	return result, nil
}

func (c *Contract) viewOperators(ctx context.Context) ([]byte, error) {
	operators, err := c.operatorDg.ListOperators(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(operators)
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal operator list")
	}
	return data, nil
}
