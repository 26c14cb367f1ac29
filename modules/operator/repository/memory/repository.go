// Package memory is the in-memory OperatorDataGateway used by the simulated
// chain host.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/ovl-network/ido-engine/core/types"
	"github.com/ovl-network/ido-engine/modules/operator/datagateway"
	"github.com/samber/lo"
)

type Repository struct {
	keys map[types.AccountAddress]ed25519.PublicKey
}

func NewRepository() *Repository {
	return &Repository{
		keys: make(map[types.AccountAddress]ed25519.PublicKey),
	}
}

func (r *Repository) GetOperatorKey(_ context.Context, account types.AccountAddress) (ed25519.PublicKey, error) {
	key, ok := r.keys[account]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "operator %s", account)
	}
	return bytes.Clone(key), nil
}

func (r *Repository) PutOperatorKey(_ context.Context, account types.AccountAddress, key ed25519.PublicKey) error {
	r.keys[account] = bytes.Clone(key)
	return nil
}

func (r *Repository) DeleteOperatorKey(_ context.Context, account types.AccountAddress) error {
	delete(r.keys, account)
	return nil
}

func (r *Repository) ListOperators(_ context.Context) ([]datagateway.Operator, error) {
	operators := lo.MapToSlice(r.keys, func(account types.AccountAddress, key ed25519.PublicKey) datagateway.Operator {
		return datagateway.Operator{Account: account, PublicKey: bytes.Clone(key)}
	})
	slices.SortFunc(operators, func(a, b datagateway.Operator) int {
		return bytes.Compare(a.Account[:], b.Account[:])
	})
	return operators, nil
}

type snapshot struct {
	Operators []datagateway.Operator `json:"operators"`
}

func (r *Repository) Snapshot() ([]byte, error) {
	operators, err := r.ListOperators(context.Background())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snapshot{Operators: operators})
	if err != nil {
		return nil, errors.Wrap(err, "can't marshal operator repository snapshot")
	}
	return data, nil
}

func (r *Repository) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "can't unmarshal operator repository snapshot")
	}
	r.keys = make(map[types.AccountAddress]ed25519.PublicKey, len(snap.Operators))
	for _, operator := range snap.Operators {
		r.keys[operator.Account] = bytes.Clone(operator.PublicKey)
	}
	return nil
}

var _ datagateway.OperatorDataGateway = (*Repository)(nil)
