package models

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Amount is the declared width for debts: unsigned 32 bit.
type Amount uint32

const MaxAmount = math.MaxUint32

var (
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountFractional  = errors.New("amount must be a whole number")
	ErrAmountOverflow    = errors.New("amount exceeds 32 bit width")
)

var maxAmountDecimal = decimal.NewFromInt(MaxAmount)

// AmountFromInt64 checks that v is representable as an Amount.
func AmountFromInt64(v int64) (Amount, error) {
	if v <= 0 {
		return 0, ErrAmountNotPositive
	}
	if v > MaxAmount {
		return 0, ErrAmountOverflow
	}
	return Amount(v), nil
}

// ParseAmount converts a decimal value received over the wire. Fractional,
// non-positive and oversized values fail closed.
func ParseAmount(d decimal.Decimal) (Amount, error) {
	if d.Sign() <= 0 {
		return 0, ErrAmountNotPositive
	}
	if !d.IsInteger() {
		return 0, ErrAmountFractional
	}
	if d.GreaterThan(maxAmountDecimal) {
		return 0, ErrAmountOverflow
	}
	return Amount(d.IntPart()), nil
}

// Decimal returns the amount as a decimal for JSON encoding.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}
