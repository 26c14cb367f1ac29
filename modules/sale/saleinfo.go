package sale

import (
	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/core/types"
)

// SaleInfo tracks price and capacity. AppliedUnits only moves through
// ApplyUnits / ReleaseUnits so the hardcap invariant holds at every step.
type SaleInfo struct {
	PricePerToken types.Amount      `json:"pricePerToken"`
	TokenPerUnit  types.TokenAmount `json:"tokenPerUnit"`
	MaxUnits      types.UnitAmount  `json:"maxUnits"`
	MinUnits      types.UnitAmount  `json:"minUnits"`
	AppliedUnits  types.UnitAmount  `json:"appliedUnits"`
}

// NewSaleInfo rejects a softcap at or above the hardcap and any price that
// cannot be represented per unit.
func NewSaleInfo(pricePerToken types.Amount, tokenPerUnit types.TokenAmount, maxUnits, minUnits types.UnitAmount) (*SaleInfo, error) {
	if minUnits >= maxUnits {
		return nil, errors.Wrapf(ErrInappropriate, "softcap %d must be below hardcap %d", minUnits, maxUnits)
	}
	if _, err := pricePerToken.CheckedMulToken(tokenPerUnit); err != nil {
		return nil, err
	}
	return &SaleInfo{
		PricePerToken: pricePerToken,
		TokenPerUnit:  tokenPerUnit,
		MaxUnits:      maxUnits,
		MinUnits:      minUnits,
	}, nil
}

// RoomToApply is the remaining capacity, saturating at zero.
func (s *SaleInfo) RoomToApply() types.UnitAmount {
	return s.MaxUnits.SaturatingSub(s.AppliedUnits)
}

// IsReachedSoftCap reports whether the sale can be fixed as successful.
func (s *SaleInfo) IsReachedSoftCap() bool {
	return s.AppliedUnits >= s.MinUnits
}

// PricePerUnit is the native price of one allocation unit.
func (s *SaleInfo) PricePerUnit() (types.Amount, error) {
	return s.PricePerToken.CheckedMulToken(s.TokenPerUnit)
}

// AmountOfPjToken is the token quantity backing the currently applied units.
func (s *SaleInfo) AmountOfPjToken() (types.TokenAmount, error) {
	return s.TokenPerUnit.CheckedMulUnits(s.AppliedUnits)
}

// ApplyUnits consumes room. Callers must have clamped units to RoomToApply;
// exceeding the hardcap here is a programming error surfaced as one.
func (s *SaleInfo) ApplyUnits(units types.UnitAmount) error {
	if units > s.RoomToApply() {
		return errors.Wrapf(ErrInappropriate, "applying %d units exceeds room %d", units, s.RoomToApply())
	}
	s.AppliedUnits += units
	return nil
}

// ReleaseUnits gives room back when a participant is removed post-close.
func (s *SaleInfo) ReleaseUnits(units types.UnitAmount) {
	s.AppliedUnits = s.AppliedUnits.SaturatingSub(units)
}

// TotalUnits caps the payout base at the hardcap even if applied ever
// exceeded it through partial-fill rounding.
func (s *SaleInfo) TotalUnits() types.UnitAmount {
	return types.MinUnits(s.MaxUnits, s.AppliedUnits)
}
