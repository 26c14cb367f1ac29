package operator

import (
	"crypto/sha256"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/codec"
)

// PermitActionKind discriminates the PermitAction union.
type PermitActionKind uint8

const (
	ActionAddKey PermitActionKind = iota
	ActionRemoveKey
	ActionInvoke
)

var actionNames = map[PermitActionKind]string{
	ActionAddKey:    "AddKey",
	ActionRemoveKey: "RemoveKey",
	ActionInvoke:    "Invoke",
}

func (k PermitActionKind) String() string {
	name, ok := actionNames[k]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

// PermitAction is what a signed permit authorizes. Invoke carries the proxy
// target; the other kinds carry their details in the message payload.
type PermitAction struct {
	Kind       PermitActionKind       `json:"kind"`
	Target     *types.ContractAddress `json:"target,omitempty"`
	Entrypoint string                 `json:"entrypoint,omitempty"`
}

func NewAddKeyAction() PermitAction {
	return PermitAction{Kind: ActionAddKey}
}

func NewRemoveKeyAction() PermitAction {
	return PermitAction{Kind: ActionRemoveKey}
}

func NewInvokeAction(target types.ContractAddress, entrypoint string) PermitAction {
	return PermitAction{Kind: ActionInvoke, Target: &target, Entrypoint: entrypoint}
}

// PermitMessage is the canonical signable unit of authorization. It is never
// persisted; each privileged call carries a fresh one, hashed and verified
// in place. Timestamp is an expiry ceiling: the message is valid while
// now < Timestamp.
type PermitMessage struct {
	ContractAddress types.ContractAddress `json:"contractAddress"`
	Entrypoint      string                `json:"entrypoint"`
	Action          PermitAction          `json:"action"`
	Timestamp       types.Timestamp       `json:"timestamp"`
	Payload         []byte                `json:"payload"`
}

func (m PermitMessage) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU64(m.ContractAddress.Index)
	w.WriteU64(m.ContractAddress.Subindex)
	w.WriteString(m.Entrypoint)
	w.WriteU8(uint8(m.Action.Kind))
	if m.Action.Kind == ActionInvoke {
		if m.Action.Target == nil {
			return nil, errors.Wrap(errs.InvalidArgument, "invoke action without a target")
		}
		w.WriteU64(m.Action.Target.Index)
		w.WriteU64(m.Action.Target.Subindex)
		w.WriteString(m.Action.Entrypoint)
	}
	w.WriteU64(uint64(m.Timestamp))
	w.WriteBytes(m.Payload)
	return w.Bytes(), nil
}

func (m *PermitMessage) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	if err := m.unmarshalFrom(r); err != nil {
		return err
	}
	return r.ExpectEOF()
}

func (m *PermitMessage) unmarshalFrom(r *codec.Reader) error {
	index, err := r.ReadU64()
	if err != nil {
		return err
	}
	subindex, err := r.ReadU64()
	if err != nil {
		return err
	}
	m.ContractAddress = types.ContractAddress{Index: index, Subindex: subindex}
	entrypoint, err := r.ReadString()
	if err != nil {
		return err
	}
	m.Entrypoint = entrypoint
	kind, err := r.ReadU8()
	if err != nil {
		return err
	}
	m.Action = PermitAction{Kind: PermitActionKind(kind)}
	switch m.Action.Kind {
	case ActionAddKey, ActionRemoveKey:
	case ActionInvoke:
		targetIndex, err := r.ReadU64()
		if err != nil {
			return err
		}
		targetSubindex, err := r.ReadU64()
		if err != nil {
			return err
		}
		m.Action.Target = &types.ContractAddress{Index: targetIndex, Subindex: targetSubindex}
		targetEntrypoint, err := r.ReadString()
		if err != nil {
			return err
		}
		m.Action.Entrypoint = targetEntrypoint
	default:
		return errors.Wrapf(errs.ParseError, "invalid permit action kind %d", kind)
	}
	timestamp, err := r.ReadU64()
	if err != nil {
		return err
	}
	m.Timestamp = types.Timestamp(timestamp)
	payload, err := r.ReadBytes()
	if err != nil {
		return err
	}
	m.Payload = payload
	return nil
}

// Digest is the SHA-256 of the canonical byte form. Operators sign this,
// never the raw JSON.
func (m PermitMessage) Digest() ([32]byte, error) {
	canonical, err := m.MarshalParam()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}
