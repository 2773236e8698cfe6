package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "vending/internal/common"
)

func createTestProductStock() *ProductStock {
	return NewProductStock(
		StockedProduct{Product: NewProduct("Orange Juice", Cents(750)), Units: 5},
		StockedProduct{Product: NewProduct("Dr Pepper", Cents(425)), Units: 1},
	)
}

func TestProductStock_Lookup(t *testing.T) {
	products := createTestProductStock()

	product, err := products.ProductAt(1)
	require.NoError(t, err)
	assert.Equal(t, NewProduct("Dr Pepper", Cents(425)), product)

	units, err := products.UnitsAt(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), units)
	assert.Equal(t, 2, products.Len())
}

func TestProductStock_InvalidSlot(t *testing.T) {
	products := createTestProductStock()

	for _, slot := range []int{-1, 2, 100} {
		_, err := products.ProductAt(slot)
		assert.ErrorIs(t, err, ErrInvalidSlot)

		_, err = products.UnitsAt(slot)
		assert.ErrorIs(t, err, ErrInvalidSlot)

		assert.ErrorIs(t, products.Decrement(slot), ErrInvalidSlot)
	}
}

func TestProductStock_Decrement(t *testing.T) {
	products := createTestProductStock()

	require.NoError(t, products.Decrement(1))
	units, err := products.UnitsAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), units)

	assert.ErrorIs(t, products.Decrement(1), ErrOutOfStock)
	units, _ = products.UnitsAt(1)
	assert.Equal(t, uint64(0), units)
}

func TestProductStock_Snapshot(t *testing.T) {
	products := createTestProductStock()

	snapshot := products.Snapshot()
	snapshot[0].Units = 0

	units, _ := products.UnitsAt(0)
	assert.Equal(t, uint64(5), units)
}
