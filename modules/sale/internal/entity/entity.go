package entity

import (
	"github.com/ovl-network/ido-engine/core/types"
)

// UserState is the per-participant sale record. Deposit stays zero until a
// deposit is accepted; WinUnits is either zero or TgtUnits (partial fills
// clamp it to remaining room). ClaimedInc counts vesting tranches already
// paid out and never decreases.
type UserState struct {
	Prior      uint8             `json:"prior"`
	Deposit    types.Amount      `json:"deposit"`
	TgtUnits   types.UnitAmount  `json:"tgtUnits"`
	WinUnits   types.UnitAmount  `json:"winUnits"`
	ClaimedInc uint8             `json:"claimedInc"`
	TokenPaid  types.TokenAmount `json:"tokenPaid"`
}

// Participant pairs an address with its state for listings.
type Participant struct {
	Address types.AccountAddress `json:"address"`
	State   UserState            `json:"state"`
}
