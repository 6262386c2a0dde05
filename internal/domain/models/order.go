package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSide is the direction of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// SideForAlert maps an alert type to an order side. Entries and scale-ins
// buy; exits sell.
func SideForAlert(t AlertType) OrderSide {
	if t == AlertExit {
		return SideSell
	}
	return SideBuy
}

// Order is the broker-facing representation of one trade intent. It is
// created once per trade signal and never mutated; retries resubmit the same
// value. ID doubles as the broker client-order id, so brokers that support
// idempotent submission dedupe resubmissions server-side.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	Symbol      string          `json:"symbol"`
	Side        OrderSide       `json:"side"`
	Type        string          `json:"type"`
	Qty         decimal.Decimal `json:"qty"`
	TimeInForce string          `json:"time_in_force"`
	Broker      BrokerKind      `json:"broker"`
	StrategyID  uuid.UUID       `json:"strategy_id"`
	CreatedAt   time.Time       `json:"created_at"`

	// Read-path fields, populated by broker lookups only.
	BrokerID  string          `json:"broker_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	FilledQty decimal.Decimal `json:"filled_qty,omitempty"`
}

func (o Order) String() string {
	return fmt.Sprintf("{id: %s, symbol: %s, side: %s, qty: %s}", o.ID, o.Symbol, o.Side, o.Qty)
}

// orderNamespace seeds deterministic order ids (UUIDv5 over the logical
// trade identity).
var orderNamespace = uuid.MustParse("9b1c8f8e-1f7a-4f57-9c43-2a1d3f6e8b21")

// OrderID derives the stable identifier for one logical trade: the same
// alert always yields the same id, across retries and process restarts.
func OrderID(strategyID uuid.UUID, ticker string, fireTime time.Time) uuid.UUID {
	name := fmt.Sprintf("%s/%s/%d", strategyID, ticker, fireTime.UnixNano())
	return uuid.NewSHA1(orderNamespace, []byte(name))
}

// OrdersQuery filters broker order listings.
type OrdersQuery struct {
	Status string
	Limit  int
	After  time.Time
	Until  time.Time
}
