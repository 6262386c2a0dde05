package strategy

import (
	"errors"
	"fmt"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
)

var (
	// ErrUnknownStrategy: the alert names a strategy id the table does not
	// have. The alert is still recorded by ingestion; no order is created.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrStrategyDisabled: the strategy exists but is switched off.
	// Disabled strategies must not execute.
	ErrStrategyDisabled = errors.New("strategy disabled")
)

// TradeSignal is a validated alert bound to its resolved strategy and broker
// client, ready for dispatch. Transient: scoped to one dispatch.
type TradeSignal struct {
	Alert    models.AlertData
	Strategy models.Strategy
	Client   broker.Client
}

// BuildSignal validates one alert against the strategy table and resolves
// the broker client. Construction fails rather than silently dropping.
func BuildSignal(alert models.AlertData, table *Table, brokers *broker.Registry) (*TradeSignal, error) {
	strat, ok := table.Find(alert.StrategyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, alert.StrategyID)
	}
	if !strat.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrStrategyDisabled, strat.Name)
	}

	client, ok := brokers.Resolve(strat.Broker)
	if !ok {
		// Table load validates broker tags, so a miss here means the
		// registry and config disagree.
		return nil, fmt.Errorf("no client registered for broker %q", strat.Broker)
	}

	return &TradeSignal{Alert: alert, Strategy: strat, Client: client}, nil
}
