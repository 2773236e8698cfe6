package common

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeResult  = errors.New("negative monetary result")
	ErrNegativeAmount  = errors.New("negative monetary amount")
	ErrFractionalCents = errors.New("amount is finer than one cent")
	ErrAmountTooLarge  = errors.New("amount too large")
)

// centsExponent is the decimal exponent of the smallest currency unit.
const centsExponent = -2

var maxCents = decimal.NewFromInt(math.MaxInt64)

// Money is an exact, non-negative amount held as a count of cents. The zero
// value is zero money. Money is comparable and may be used as a map key.
type Money struct {
	cents int64
}

// Cents creates an amount from a number of cents.
func Cents(cents uint32) Money {
	return Money{cents: int64(cents)}
}

// FromCents creates an amount from a wide count of cents, failing with
// ErrAmountTooLarge past math.MaxInt64.
func FromCents(cents uint64) (Money, error) {
	if cents > math.MaxInt64 {
		return Money{}, fmt.Errorf("%w: %d cents", ErrAmountTooLarge, cents)
	}
	return Money{cents: int64(cents)}, nil
}

// FromDecimal converts a decimal boundary value, rejecting negative amounts
// and anything that is not a whole number of cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.Sign() < 0 {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, d.String())
	}
	shifted := d.Shift(-centsExponent)
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s", ErrFractionalCents, d.String())
	}
	if shifted.GreaterThan(maxCents) {
		return Money{}, fmt.Errorf("%w: %s", ErrAmountTooLarge, d.String())
	}
	return Money{cents: shifted.IntPart()}, nil
}

// ParseMoney parses a decimal string such as "4.25".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("unable to parse amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in the smallest currency unit.
func (m Money) Cents() int64 { return m.cents }

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, centsExponent)
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub returns m - other, failing with ErrNegativeResult instead of going
// below zero.
func (m Money) Sub(other Money) (Money, error) {
	if m.cents < other.cents {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrNegativeResult, m, other)
	}
	return Money{cents: m.cents - other.cents}, nil
}

// Mul scales the amount by a coin count.
func (m Money) Mul(n uint64) Money {
	return Money{cents: m.cents * int64(n)}
}

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.cents < other.cents:
		return -1
	case m.cents > other.cents:
		return 1
	}
	return 0
}

func (m Money) LessThan(other Money) bool { return m.cents < other.cents }

func (m Money) IsZero() bool { return m.cents == 0 }

// String formats the amount with exactly two decimal places, e.g. "7.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(-centsExponent)
}
