// Package datagateway declares the state-store boundary of the operator
// registry. The authorization engine only sees this interface; the host
// injects an implementation.
package datagateway

import (
	"context"
	"crypto/ed25519"

	"github.com/ovl-network/ido-engine/core/types"
)

// Operator pairs an account with its registered signing key.
type Operator struct {
	Account   types.AccountAddress `json:"account"`
	PublicKey ed25519.PublicKey    `json:"publicKey"`
}

// OperatorDataGateway stores the operator key registry. Listing order is
// deterministic (ascending account bytes).
type OperatorDataGateway interface {
	GetOperatorKey(ctx context.Context, account types.AccountAddress) (ed25519.PublicKey, error)
	PutOperatorKey(ctx context.Context, account types.AccountAddress, key ed25519.PublicKey) error
	DeleteOperatorKey(ctx context.Context, account types.AccountAddress) error
	ListOperators(ctx context.Context) ([]Operator, error)

	// Snapshot serializes the whole registry; Restore replaces it. The host
	// uses these for rollback and persistence.
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}
