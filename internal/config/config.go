// Package config loads the initial load-out of a vending machine.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vending/internal/common"
	"vending/internal/stock"
)

var ErrNoProducts = errors.New("machine has no product slots")

// Slot is one product slot; slots are numbered in file order.
type Slot struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Units uint64 `yaml:"units"`
}

// Machine describes the stock a machine starts with. Coin keys and prices
// are decimal strings such as "0.25".
type Machine struct {
	Products []Slot            `yaml:"products"`
	Coins    map[string]uint64 `yaml:"coins"`
}

// Default is the demo machine: six products and ten of every coin.
func Default() Machine {
	return Machine{
		Products: []Slot{
			{Name: "Orange Juice", Price: "7.50", Units: 5},
			{Name: "Dr Pepper", Price: "4.25", Units: 1},
			{Name: "Granola Bar", Price: "3.50", Units: 5},
			{Name: "Snickers Bar", Price: "3.75", Units: 5},
			{Name: "Lemonade", Price: "5.00", Units: 5},
			{Name: "Lays", Price: "4.00", Units: 1},
		},
		Coins: map[string]uint64{
			"0.25": 10,
			"0.50": 10,
			"1.00": 10,
			"2.00": 10,
			"5.00": 10,
		},
	}
}

func Load(path string) (Machine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Machine{}, fmt.Errorf("unable to read machine file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Machine, error) {
	var m Machine
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Machine{}, fmt.Errorf("unable to parse machine file: %w", err)
	}
	return m, nil
}

// Build turns the description into the stocks a machine is created from.
func (m Machine) Build() (*stock.ProductStock, *stock.CoinStock, error) {
	if len(m.Products) == 0 {
		return nil, nil, ErrNoProducts
	}

	products := make([]stock.StockedProduct, len(m.Products))
	for i, slot := range m.Products {
		price, err := common.ParseMoney(slot.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("slot %d (%s): %w", i, slot.Name, err)
		}
		products[i] = stock.StockedProduct{
			Product: common.NewProduct(slot.Name, price),
			Units:   slot.Units,
		}
	}

	counts := make(map[common.Money]uint64, len(m.Coins))
	for raw, count := range m.Coins {
		denomination, err := common.ParseMoney(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("coin %s: %w", raw, err)
		}
		counts[denomination] += count
	}
	coins, err := stock.NewCoinStock(counts)
	if err != nil {
		return nil, nil, err
	}

	return stock.NewProductStock(products...), coins, nil
}
