package types

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ovl-network/ido-engine/common/errs"
	"github.com/shopspring/decimal"
)

// Amount is native currency in micro-units (1e-6).
type Amount uint64

// TokenAmount is project token in micro-units (1e-6).
type TokenAmount uint64

// UnitAmount counts sale allocation units. The range is small by design; a
// sale hardcap is at most a few thousand units.
type UnitAmount uint32

// Percentage is an allocation share in the range 0..100.
type Percentage uint8

const amountDecimals = 6

// CheckedMulUnits widens through uint128 and fails on uint64 overflow
// instead of wrapping.
func (a Amount) CheckedMulUnits(units UnitAmount) (Amount, error) {
	result, overflow := uint128.From64(uint64(a)).MulOverflow(uint128.From64(uint64(units)))
	if overflow || !result.IsUint64() {
		return 0, errors.WithStack(errs.OverflowUint64)
	}
	return Amount(result.Uint64()), nil
}

// CheckedMulToken computes a * token with a 128-bit intermediate. The result
// is an Amount (price of a token quantity).
func (a Amount) CheckedMulToken(token TokenAmount) (Amount, error) {
	result, overflow := uint128.From64(uint64(a)).MulOverflow(uint128.From64(uint64(token)))
	if overflow || !result.IsUint64() {
		return 0, errors.WithStack(errs.OverflowUint64)
	}
	return Amount(result.Uint64()), nil
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -amountDecimals)
}

func (t TokenAmount) CheckedMulUnits(units UnitAmount) (TokenAmount, error) {
	result, overflow := uint128.From64(uint64(t)).MulOverflow(uint128.From64(uint64(units)))
	if overflow || !result.IsUint64() {
		return 0, errors.WithStack(errs.OverflowUint64)
	}
	return TokenAmount(result.Uint64()), nil
}

func (t TokenAmount) CheckedAdd(other TokenAmount) (TokenAmount, error) {
	result, overflow := uint128.From64(uint64(t)).AddOverflow(uint128.From64(uint64(other)))
	if overflow || !result.IsUint64() {
		return 0, errors.WithStack(errs.OverflowUint64)
	}
	return TokenAmount(result.Uint64()), nil
}

// MulPercent applies an integer percentage with a 128-bit intermediate,
// truncating toward zero. Values of percent above 100 are a programming
// error and rejected.
func (t TokenAmount) MulPercent(percent Percentage) (TokenAmount, error) {
	if percent > 100 {
		return 0, errors.Wrapf(errs.InvalidArgument, "percentage %d out of range", percent)
	}
	result, overflow := uint128.From64(uint64(t)).MulOverflow(uint128.From64(uint64(percent)))
	if overflow {
		return 0, errors.WithStack(errs.OverflowUint128)
	}
	result = result.Div64(100)
	if !result.IsUint64() {
		return 0, errors.WithStack(errs.OverflowUint64)
	}
	return TokenAmount(result.Uint64()), nil
}

func (t TokenAmount) Decimal() decimal.Decimal {
	return decimal.New(int64(t), -amountDecimals)
}

// SaturatingSub never goes below zero.
func (u UnitAmount) SaturatingSub(other UnitAmount) UnitAmount {
	if other >= u {
		return 0
	}
	return u - other
}

func MinUnits(a, b UnitAmount) UnitAmount {
	if a < b {
		return a
	}
	return b
}
