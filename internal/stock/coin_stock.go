package stock

import (
	"github.com/tidwall/btree"

	. "vending/internal/common"
)

// Denominations is the fixed set of coins the machine accepts and pays out.
var Denominations = []Money{
	Cents(25),
	Cents(50),
	Cents(100),
	Cents(200),
	Cents(500),
}

type coinLevel struct {
	denomination Money
	count        uint64
}

type coinLevels = btree.BTreeG[*coinLevel]

// CoinStock holds the number of coins available per denomination.
type CoinStock struct {
	// Sorted greatest first, which is the order change is paid out in.
	levels *coinLevels
}

// NewCoinStock seeds every accepted denomination, using the given counts
// where present. Unknown denominations fail with InvalidDenomination.
func NewCoinStock(counts map[Money]uint64) (*CoinStock, error) {
	levels := btree.NewBTreeG(func(a, b *coinLevel) bool {
		return a.denomination.Cmp(b.denomination) > 0
	})
	for _, denomination := range Denominations {
		levels.Set(&coinLevel{denomination: denomination})
	}

	stock := &CoinStock{levels: levels}
	for denomination, count := range counts {
		level, err := stock.level(denomination)
		if err != nil {
			return nil, err
		}
		level.count = count
	}
	return stock, nil
}

// level looks up a denomination. Levels comparator only accounts for the
// denomination, so a dummy level is used for the search.
func (s *CoinStock) level(denomination Money) (*coinLevel, error) {
	level, ok := s.levels.GetMut(&coinLevel{denomination: denomination})
	if !ok {
		return nil, &Error{Kind: InvalidDenomination, Coin: denomination}
	}
	return level, nil
}

func (s *CoinStock) Accepts(denomination Money) bool {
	_, ok := s.levels.Get(&coinLevel{denomination: denomination})
	return ok
}

// Deposit adds one coin to the stock.
func (s *CoinStock) Deposit(denomination Money) error {
	level, err := s.level(denomination)
	if err != nil {
		return err
	}
	level.count++
	return nil
}

// TotalCounts returns a snapshot of the count held for every accepted
// denomination.
func (s *CoinStock) TotalCounts() map[Money]uint64 {
	out := make(map[Money]uint64, s.levels.Len())
	s.levels.Scan(func(level *coinLevel) bool {
		out[level.denomination] = level.count
		return true
	})
	return out
}

// MakeChange proposes coins worth exactly amount without touching the stock.
// Starting from the largest denomination it takes as many coins as the stock
// and the remaining amount allow, then moves to the next smaller one. If an
// amount is left once every denomination is used, it fails with
// InsufficientChange. A zero amount yields an empty breakdown.
//
// Greedy payout is exact for the fixed denomination set; it is not a general
// coin-change search.
func (s *CoinStock) MakeChange(amount Money) (Breakdown, error) {
	breakdown := Breakdown{}
	remaining := amount.Cents()

	s.levels.Scan(func(level *coinLevel) bool {
		if remaining == 0 {
			return false
		}
		value := level.denomination.Cents()
		take := min(uint64(remaining/value), level.count)
		if take > 0 {
			breakdown[level.denomination] = take
			remaining -= value * int64(take)
		}
		return true
	})

	if remaining > 0 {
		return nil, &Error{Kind: InsufficientChange, Due: amount}
	}
	return breakdown, nil
}

// CommitChange removes a breakdown returned by MakeChange from the stock.
// Every denomination is checked before any count changes.
func (s *CoinStock) CommitChange(breakdown Breakdown) error {
	levels := make([]*coinLevel, 0, len(breakdown))
	for denomination, count := range breakdown {
		level, err := s.level(denomination)
		if err != nil {
			return err
		}
		if level.count < count {
			return &Error{Kind: InsufficientChange, Due: breakdown.Total()}
		}
		levels = append(levels, level)
	}

	for _, level := range levels {
		level.count -= breakdown[level.denomination]
	}
	return nil
}
