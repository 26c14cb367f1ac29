package chain

import (
	"context"

	"github.com/ovl-network/ido-engine/core/types"
)

// Contract is a deployable state machine. A contract owns its state through
// an injected store; the host only ever touches that state through the
// snapshot methods, which serve both rollback and persistence.
type Contract interface {
	// Init builds the initial state. Failure means the instance never comes
	// into existence.
	Init(ctx context.Context, ictx InitContext, params []byte) error

	// Receive executes one entrypoint call against mutable state. Any error
	// rolls the whole call back.
	Receive(ctx context.Context, rctx ReceiveContext, entrypoint string, params []byte) ([]byte, error)

	// SnapshotState serializes the full contract state.
	SnapshotState() ([]byte, error)

	// RestoreState replaces the contract state with a prior snapshot.
	RestoreState(data []byte) error
}

// InitContext is the host view available while initializing an instance.
type InitContext interface {
	Self() types.ContractAddress
	Owner() types.AccountAddress
	Now() types.Timestamp
	AmountPaid() types.Amount
	Tick(cost uint64) error
}

// ReceiveContext is the host view available inside an entrypoint call.
// Outbound operations are fallible; a failed transfer or invoke surfaces as
// this call's own error and the host rolls everything back.
type ReceiveContext interface {
	InitContext
	Sender() types.Address
	Invoker() types.AccountAddress
	Entrypoint() string
	SelfBalance() types.Amount

	// Transfer moves native currency from the contract to an account.
	Transfer(to types.AccountAddress, amount types.Amount) error

	// InvokeContract synchronously calls another contract. The callee's
	// tentative state changes are rolled back if it fails.
	InvokeContract(ctx context.Context, target types.ContractAddress, entrypoint string, params []byte, amount types.Amount) ([]byte, error)
}
