// Package datagateway declares the state-store boundary of the sale engine.
// The state machine only ever sees these interfaces; the host injects an
// implementation (in-memory for the simulated chain).
package datagateway

import (
	"context"

	"github.com/ovl-network/ido-engine/modules/sale/internal/entity"
	"github.com/ovl-network/ido-engine/core/types"
)

// SaleDataGateway stores the contract-wide sale state blob and the
// participant registry. Participants are keyed by account address; listing
// order is deterministic (ascending address bytes).
type SaleDataGateway interface {
	GetSaleState(ctx context.Context) ([]byte, error)
	SaveSaleState(ctx context.Context, state []byte) error

	GetParticipant(ctx context.Context, address types.AccountAddress) (*entity.UserState, error)
	PutParticipant(ctx context.Context, address types.AccountAddress, state entity.UserState) error
	DeleteParticipant(ctx context.Context, address types.AccountAddress) error
	ListParticipants(ctx context.Context) ([]entity.Participant, error)

	// Snapshot serializes the whole store; Restore replaces it. The host
	// uses these for rollback and persistence.
	Snapshot() ([]byte, error)
	Restore(data []byte) error
}
