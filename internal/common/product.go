package common

import "fmt"

// Product is an immutable name and price pair. Two products are equal when
// both fields are equal.
type Product struct {
	Name  string // Display name
	Price Money  // Selling price
}

func NewProduct(name string, price Money) Product {
	return Product{Name: name, Price: price}
}

func (p Product) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Price)
}
