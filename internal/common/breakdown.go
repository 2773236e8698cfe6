package common

import (
	"fmt"
	"slices"
	"strings"
)

// Breakdown maps a coin denomination to a number of coins. It describes both
// proposed and paid out change.
type Breakdown map[Money]uint64

// Total is the value of all coins in the breakdown.
func (b Breakdown) Total() Money {
	var total Money
	for denomination, count := range b {
		total = total.Add(denomination.Mul(count))
	}
	return total
}

// Denominations returns the denominations present, largest first.
func (b Breakdown) Denominations() []Money {
	out := make([]Money, 0, len(b))
	for denomination := range b {
		out = append(out, denomination)
	}
	slices.SortFunc(out, func(a, b Money) int { return b.Cmp(a) })
	return out
}

func (b Breakdown) Clone() Breakdown {
	if b == nil {
		return nil
	}
	out := make(Breakdown, len(b))
	for denomination, count := range b {
		out[denomination] = count
	}
	return out
}

// String renders the breakdown largest denomination first, e.g.
// "{0.50: 1, 0.25: 1}".
func (b Breakdown) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, denomination := range b.Denominations() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d", denomination, b[denomination])
	}
	sb.WriteByte('}')
	return sb.String()
}
