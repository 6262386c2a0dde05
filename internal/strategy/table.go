// Package strategy owns the read-only strategy table and the trade-signal
// builder that binds an alert to its strategy and broker client.
package strategy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alloc33/market/internal/domain/models"
	"github.com/alloc33/market/pkg/config"
)

// Table is the strategy lookup table. Built once at startup and never
// mutated, so concurrent reads need no synchronization.
type Table struct {
	byID map[uuid.UUID]models.Strategy
}

// LoadTable builds the table from configuration. Per-strategy retry settings
// left unset inherit the dispatch defaults. Any invalid entry fails the
// whole load; this is a startup error, not a per-request one.
func LoadTable(cfg *config.Config) (*Table, error) {
	byID := make(map[uuid.UUID]models.Strategy, len(cfg.Strategies))

	for i, sc := range cfg.Strategies {
		id, err := uuid.Parse(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("strategies[%d]: bad id %q: %w", i, sc.ID, err)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("strategies[%d]: duplicate id %s", i, id)
		}

		kind := models.BrokerKind(sc.Broker)
		if !kind.Valid() {
			return nil, fmt.Errorf("strategies[%d]: unknown broker %q", i, sc.Broker)
		}

		qty := decimal.NewFromInt(1)
		if sc.OrderQty != "" {
			qty, err = decimal.NewFromString(sc.OrderQty)
			if err != nil {
				return nil, fmt.Errorf("strategies[%d]: bad order_qty %q: %w", i, sc.OrderQty, err)
			}
			if qty.Sign() <= 0 {
				return nil, fmt.Errorf("strategies[%d]: order_qty must be positive", i)
			}
		}

		maxRetries := cfg.Dispatch.MaxRetries
		if sc.MaxRetries != nil {
			maxRetries = *sc.MaxRetries
		}
		retryDelay := cfg.Dispatch.RetryDelay.Std()
		if sc.RetryDelay != nil {
			retryDelay = sc.RetryDelay.Std()
		}

		byID[id] = models.Strategy{
			ID:         id,
			Name:       sc.Name,
			Enabled:    sc.Enabled,
			Broker:     kind,
			OrderQty:   qty,
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
		}
	}

	return &Table{byID: byID}, nil
}

// NewTable builds a table from ready strategies. Test seam; production code
// goes through LoadTable.
func NewTable(strategies []models.Strategy) *Table {
	byID := make(map[uuid.UUID]models.Strategy, len(strategies))
	for _, s := range strategies {
		byID[s.ID] = s
	}
	return &Table{byID: byID}
}

// Find looks up a strategy by id.
func (t *Table) Find(id uuid.UUID) (models.Strategy, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// Len reports the number of loaded strategies.
func (t *Table) Len() int { return len(t.byID) }
