package stock

import (
	. "vending/internal/common"
)

// StockedProduct is a product together with the units left in its slot.
type StockedProduct struct {
	Product Product
	Units   uint64
}

// ProductStock is the ordered list of slots. Slot ids are 0-based and follow
// the order the products were given in.
type ProductStock struct {
	slots []StockedProduct
}

func NewProductStock(products ...StockedProduct) *ProductStock {
	slots := make([]StockedProduct, len(products))
	copy(slots, products)
	return &ProductStock{slots: slots}
}

func (s *ProductStock) Len() int { return len(s.slots) }

// slot resolves a slot id, failing with InvalidSlot when out of range.
func (s *ProductStock) slot(id int) (*StockedProduct, error) {
	if id < 0 || id >= len(s.slots) {
		return nil, &Error{Kind: InvalidSlot, Slot: id}
	}
	return &s.slots[id], nil
}

func (s *ProductStock) ProductAt(id int) (Product, error) {
	slot, err := s.slot(id)
	if err != nil {
		return Product{}, err
	}
	return slot.Product, nil
}

func (s *ProductStock) UnitsAt(id int) (uint64, error) {
	slot, err := s.slot(id)
	if err != nil {
		return 0, err
	}
	return slot.Units, nil
}

// Decrement removes one unit from the slot, failing with OutOfStock when the
// slot is empty.
func (s *ProductStock) Decrement(id int) error {
	slot, err := s.slot(id)
	if err != nil {
		return err
	}
	if slot.Units == 0 {
		return &Error{Kind: OutOfStock, Slot: id}
	}
	slot.Units--
	return nil
}

// Snapshot returns a copy of every slot in slot order.
func (s *ProductStock) Snapshot() []StockedProduct {
	out := make([]StockedProduct, len(s.slots))
	copy(out, s.slots)
	return out
}
