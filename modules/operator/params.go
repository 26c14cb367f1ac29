package operator

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/pkg/codec"
)

// SignatureSet keys detached signatures by signer account. The keying is the
// replay defence: one account can only ever contribute one signature per
// message, so a quorum count over the set counts distinct signers.
type SignatureSet map[types.AccountAddress][]byte

type signatureEntry struct {
	Account   types.AccountAddress `json:"account"`
	Signature []byte               `json:"signature"`
}

func (s SignatureSet) sortedEntries() []signatureEntry {
	entries := make([]signatureEntry, 0, len(s))
	for account, signature := range s {
		entries = append(entries, signatureEntry{Account: account, Signature: signature})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Account[:], entries[j].Account[:]) < 0
	})
	return entries
}

func (s SignatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.sortedEntries())
}

func (s *SignatureSet) UnmarshalJSON(data []byte) error {
	var entries []signatureEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.WithStack(err)
	}
	set := make(SignatureSet, len(entries))
	for _, entry := range entries {
		if _, ok := set[entry.Account]; ok {
			return errors.Wrapf(errs.Duplicate, "duplicate signer %s", entry.Account)
		}
		set[entry.Account] = entry.Signature
	}
	*s = set
	return nil
}

// ParamsWithSignatures is the parameter shape of every permit-guarded
// entrypoint: the message plus the signature set vouching for it.
type ParamsWithSignatures struct {
	Signatures SignatureSet  `json:"signatures"`
	Message    PermitMessage `json:"message"`
}

func (p ParamsWithSignatures) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	entries := p.Signatures.sortedEntries()
	w.WriteU32(uint32(len(entries)))
	for _, entry := range entries {
		w.WriteFixedBytes(entry.Account[:])
		if len(entry.Signature) != ed25519.SignatureSize {
			return nil, errors.Wrapf(errs.InvalidArgument, "signature for %s is %d bytes, want %d", entry.Account, len(entry.Signature), ed25519.SignatureSize)
		}
		w.WriteFixedBytes(entry.Signature)
	}
	message, err := p.Message.MarshalParam()
	if err != nil {
		return nil, err
	}
	w.WriteFixedBytes(message)
	return w.Bytes(), nil
}

func (p *ParamsWithSignatures) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	set := make(SignatureSet, count)
	for i := uint32(0); i < count; i++ {
		raw, err := r.ReadFixedBytes(types.AccountAddressSize)
		if err != nil {
			return err
		}
		var account types.AccountAddress
		copy(account[:], raw)
		signature, err := r.ReadFixedBytes(ed25519.SignatureSize)
		if err != nil {
			return err
		}
		if _, ok := set[account]; ok {
			return errors.Wrapf(errs.ParseError, "duplicate signer %s", account)
		}
		set[account] = signature
	}
	p.Signatures = set
	if err := p.Message.unmarshalFrom(r); err != nil {
		return err
	}
	return r.ExpectEOF()
}

// InitParams registers the founding operator set. The quorum rule requires
// strictly more than one valid signer, so the set must hold at least two.
type InitParams struct {
	Operators []OperatorEntry `json:"operators"`
}

type OperatorEntry struct {
	Account   types.AccountAddress `json:"account"`
	PublicKey ed25519.PublicKey    `json:"publicKey"`
}

func (p InitParams) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU32(uint32(len(p.Operators)))
	for _, operator := range p.Operators {
		w.WriteFixedBytes(operator.Account[:])
		if len(operator.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.Wrapf(errs.InvalidArgument, "public key for %s is %d bytes, want %d", operator.Account, len(operator.PublicKey), ed25519.PublicKeySize)
		}
		w.WriteFixedBytes(operator.PublicKey)
	}
	return w.Bytes(), nil
}

func (p *InitParams) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	p.Operators = make([]OperatorEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		raw, err := r.ReadFixedBytes(types.AccountAddressSize)
		if err != nil {
			return err
		}
		var entry OperatorEntry
		copy(entry.Account[:], raw)
		key, err := r.ReadFixedBytes(ed25519.PublicKeySize)
		if err != nil {
			return err
		}
		entry.PublicKey = key
		p.Operators = append(p.Operators, entry)
	}
	return r.ExpectEOF()
}

// AddKeyPayload rides inside an AddKey permit's payload.
type AddKeyPayload struct {
	Account   types.AccountAddress `json:"account"`
	PublicKey ed25519.PublicKey    `json:"publicKey"`
}

func (p AddKeyPayload) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteFixedBytes(p.Account[:])
	if len(p.PublicKey) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errs.InvalidArgument, "public key is %d bytes, want %d", len(p.PublicKey), ed25519.PublicKeySize)
	}
	w.WriteFixedBytes(p.PublicKey)
	return w.Bytes(), nil
}

func (p *AddKeyPayload) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	raw, err := r.ReadFixedBytes(types.AccountAddressSize)
	if err != nil {
		return err
	}
	copy(p.Account[:], raw)
	key, err := r.ReadFixedBytes(ed25519.PublicKeySize)
	if err != nil {
		return err
	}
	p.PublicKey = key
	return r.ExpectEOF()
}

// RemoveKeyPayload rides inside a RemoveKey permit's payload.
type RemoveKeyPayload struct {
	Account types.AccountAddress `json:"account"`
}

func (p RemoveKeyPayload) MarshalParam() ([]byte, error) {
	w := codec.NewWriter()
	w.WriteFixedBytes(p.Account[:])
	return w.Bytes(), nil
}

func (p *RemoveKeyPayload) UnmarshalParam(data []byte) error {
	r := codec.NewReader(data)
	raw, err := r.ReadFixedBytes(types.AccountAddressSize)
	if err != nil {
		return err
	}
	copy(p.Account[:], raw)
	return r.ExpectEOF()
}
