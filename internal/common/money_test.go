package common

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input string
		cents int64
		err   error
	}{
		{input: "4.25", cents: 425},
		{input: "7.5", cents: 750},
		{input: "5", cents: 500},
		{input: "0.00", cents: 0},
		{input: "0.255", err: ErrFractionalCents},
		{input: "-1.00", err: ErrNegativeAmount},
		{input: "92233720368547758.07", cents: math.MaxInt64},
		{input: "92233720368547758.08", err: ErrAmountTooLarge},
		{input: "1000000000000000000000", err: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseMoney(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cents, m.Cents())
		})
	}

	_, err := ParseMoney("two dollars")
	assert.Error(t, err)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "7.50", Cents(750).String())
	assert.Equal(t, "0.00", Money{}.String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "120.00", Cents(12000).String())
}

func TestMoney_Arithmetic(t *testing.T) {
	quarter := MustParseMoney("0.25")

	// Ten quarters are exactly 2.50, in any grouping.
	var sum Money
	for range 10 {
		sum = sum.Add(quarter)
	}
	assert.Equal(t, MustParseMoney("2.50"), sum)
	assert.Equal(t, quarter.Mul(10), sum)
	assert.Equal(t, quarter.Add(Cents(50)).Add(Cents(100)), Cents(100).Add(Cents(50).Add(quarter)))

	diff, err := Cents(750).Sub(Cents(700))
	require.NoError(t, err)
	assert.Equal(t, Cents(50), diff)

	_, err = Cents(700).Sub(Cents(750))
	assert.ErrorIs(t, err, ErrNegativeResult)

	zero, err := Cents(425).Sub(Cents(425))
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestMoney_Compare(t *testing.T) {
	assert.Equal(t, -1, Cents(25).Cmp(Cents(50)))
	assert.Equal(t, 0, Cents(50).Cmp(MustParseMoney("0.5")))
	assert.Equal(t, 1, Cents(500).Cmp(Cents(200)))
	assert.True(t, Cents(700).LessThan(Cents(750)))
	assert.False(t, Cents(750).LessThan(Cents(750)))
}

func TestMoney_Decimal(t *testing.T) {
	m, err := FromDecimal(decimal.NewFromFloat(4.25))
	require.NoError(t, err)
	assert.Equal(t, Cents(425), m)
	assert.True(t, decimal.RequireFromString("4.25").Equal(m.Decimal()))
}

func TestFromCents(t *testing.T) {
	m, err := FromCents(1<<32 + 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<32+100), m.Cents())
	assert.Equal(t, "42949673.96", m.String())

	m, err = FromCents(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), m.Cents())

	_, err = FromCents(math.MaxInt64 + 1)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
}
