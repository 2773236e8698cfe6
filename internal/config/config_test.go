package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vending/internal/common"
)

const machineFile = `
products:
  - name: Orange Juice
    price: "7.50"
    units: 5
  - name: Dr Pepper
    price: "4.25"
    units: 1
coins:
  "0.25": 4
  "5.00": 2
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(machineFile), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Products, 2)
	assert.Equal(t, Slot{Name: "Dr Pepper", Price: "4.25", Units: 1}, m.Products[1])

	products, coins, err := m.Build()
	require.NoError(t, err)

	product, err := products.ProductAt(0)
	require.NoError(t, err)
	assert.Equal(t, common.NewProduct("Orange Juice", common.Cents(750)), product)

	assert.Equal(t, map[common.Money]uint64{
		common.Cents(25):  4,
		common.Cents(50):  0,
		common.Cents(100): 0,
		common.Cents(200): 0,
		common.Cents(500): 2,
	}, coins.TotalCounts())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	products, coins, err := Default().Build()
	require.NoError(t, err)

	assert.Equal(t, 6, products.Len())
	for _, count := range coins.TotalCounts() {
		assert.Equal(t, uint64(10), count)
	}
}

func TestBuild_Errors(t *testing.T) {
	_, _, err := Machine{}.Build()
	assert.ErrorIs(t, err, ErrNoProducts)

	_, _, err = Machine{Products: []Slot{{Name: "Gum", Price: "cheap"}}}.Build()
	assert.Error(t, err)

	_, _, err = Machine{
		Products: []Slot{{Name: "Gum", Price: "1.00", Units: 1}},
		Coins:    map[string]uint64{"0.30": 1},
	}.Build()
	assert.ErrorIs(t, err, common.ErrInvalidDenomination)

	_, err = Parse([]byte("products: ["))
	assert.Error(t, err)
}
