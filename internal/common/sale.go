package common

import (
	"fmt"
	"time"
)

// Sale is a committed purchase. Change is nil when the customer paid the
// exact price.
type Sale struct {
	UUID      string    // Sale tracked uuid
	Product   Product   // Dispensed product
	Change    Breakdown // Returned coins, nil on exact payment
	Timestamp time.Time // Time the sale was committed
}

func (s Sale) String() string {
	change := "none"
	if s.Change != nil {
		change = s.Change.String()
	}
	return fmt.Sprintf(
		`UUID:      %s
Product:   %s
Change:    %s
Timestamp: %v`,
		s.UUID,
		s.Product,
		change,
		s.Timestamp.Format(time.RFC3339),
	)
}
