package common

import "fmt"

type ErrorKind int

const (
	InvalidSlot ErrorKind = iota
	OutOfStock
	InsufficientFunds
	InsufficientChange
	InvalidDenomination
)

var kindName = map[ErrorKind]string{
	InvalidSlot:         "InvalidSlot",
	OutOfStock:          "OutOfStock",
	InsufficientFunds:   "InsufficientFunds",
	InsufficientChange:  "InsufficientChange",
	InvalidDenomination: "InvalidDenomination",
}

func (k ErrorKind) String() string {
	return kindName[k]
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInvalidSlot         = &Error{Kind: InvalidSlot}
	ErrOutOfStock          = &Error{Kind: OutOfStock}
	ErrInsufficientFunds   = &Error{Kind: InsufficientFunds}
	ErrInsufficientChange  = &Error{Kind: InsufficientChange}
	ErrInvalidDenomination = &Error{Kind: InvalidDenomination}
)

// Error is a rejected machine operation. Its message is what the customer
// sees, so the texts below are fixed.
type Error struct {
	Kind     ErrorKind
	Slot     int   // InvalidSlot, OutOfStock
	Coin     Money // InvalidDenomination
	Price    Money // InsufficientFunds
	Inserted Money // InsufficientFunds
	Due      Money // InsufficientChange
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidSlot:
		return fmt.Sprintf("The selected slot %d does not exist.", e.Slot)
	case OutOfStock:
		return "The selected product is out of stock."
	case InsufficientFunds:
		need, _ := e.Price.Sub(e.Inserted)
		return fmt.Sprintf(
			"Not enough money. Price: %s; Inserted Amount: %s; Need %s more.",
			e.Price, e.Inserted, need,
		)
	case InsufficientChange:
		return "Cannot return a change, not enough required coins."
	case InvalidDenomination:
		return fmt.Sprintf("Invalid coin: %s.", e.Coin)
	}
	return fmt.Sprintf("unknown error kind %d", e.Kind)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
