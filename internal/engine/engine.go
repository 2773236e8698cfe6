package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	. "vending/internal/common"
	"vending/internal/stock"
)

// Reporter is notified of every committed sale.
type Reporter interface {
	ReportSale(sale Sale) error
}

// Machine is the vending machine. It owns its product stock, its coin stock
// and the ledger of money inserted towards the next purchase.
//
// All operations are serialized by mu, so a caller never observes a product
// decremented without its change committed, or the reverse.
type Machine struct {
	mu       sync.Mutex
	products *stock.ProductStock
	coins    *stock.CoinStock
	inserted Money
	reporter Reporter
}

func New(products *stock.ProductStock, coins *stock.CoinStock) *Machine {
	return &Machine{
		products: products,
		coins:    coins,
	}
}

func (m *Machine) SetReporter(reporter Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporter = reporter
}

// InsertCoins deposits the coins one at a time. It stops at the first coin
// that is not an accepted denomination; coins before it stay deposited and
// credited to the ledger.
func (m *Machine) InsertCoins(coins ...Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, coin := range coins {
		if err := m.coins.Deposit(coin); err != nil {
			log.Debug().
				Str("coin", coin.String()).
				Str("inserted", m.inserted.String()).
				Msg("coin rejected")
			return err
		}
		m.inserted = m.inserted.Add(coin)
	}
	return nil
}

// SelectProduct sells the product in slot against the inserted money.
//
// Every check runs before anything is mutated: the slot must exist and hold
// stock, the ledger must cover the price, and the coin stock must be able to
// pay the difference exactly. Only then is the unit removed, the change taken
// out of the coin stock and the ledger cleared. A failed selection leaves the
// machine untouched so the customer can retry with the same balance.
func (m *Machine) SelectProduct(slot int) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale, err := m.selectProduct(slot)
	if err != nil {
		log.Debug().
			Err(err).
			Int("slot", slot).
			Str("inserted", m.inserted.String()).
			Msg("selection rejected")
		return Sale{}, err
	}

	log.Info().
		Str("uuid", sale.UUID).
		Str("product", sale.Product.Name).
		Str("price", sale.Product.Price.String()).
		Str("change", sale.Change.String()).
		Msg("sale committed")

	if m.reporter != nil {
		if err := m.reporter.ReportSale(sale); err != nil {
			log.Error().Err(err).Str("uuid", sale.UUID).Msg("unable to report sale")
		}
	}
	return sale, nil
}

func (m *Machine) selectProduct(slot int) (Sale, error) {
	product, err := m.products.ProductAt(slot)
	if err != nil {
		return Sale{}, err
	}

	units, err := m.products.UnitsAt(slot)
	if err != nil {
		return Sale{}, err
	}
	if units == 0 {
		return Sale{}, &Error{Kind: OutOfStock, Slot: slot}
	}

	due, err := m.inserted.Sub(product.Price)
	if err != nil {
		return Sale{}, &Error{
			Kind:     InsufficientFunds,
			Slot:     slot,
			Price:    product.Price,
			Inserted: m.inserted,
		}
	}

	change, err := m.coins.MakeChange(due)
	if err != nil {
		return Sale{}, err
	}

	// Commit. Both calls were validated above and cannot fail here.
	if err := m.products.Decrement(slot); err != nil {
		return Sale{}, err
	}
	if err := m.coins.CommitChange(change); err != nil {
		return Sale{}, err
	}
	m.inserted = Money{}

	sale := Sale{
		UUID:      uuid.New().String(),
		Product:   product,
		Timestamp: time.Now(),
	}
	if !due.IsZero() {
		sale.Change = change
	}
	return sale, nil
}

func (m *Machine) UnitsInStock(slot int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.UnitsAt(slot)
}

func (m *Machine) CoinsInStock() map[Money]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins.TotalCounts()
}

// Inserted returns the money credited towards the next purchase.
func (m *Machine) Inserted() Money {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserted
}

func (m *Machine) Products() []stock.StockedProduct {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.Snapshot()
}
