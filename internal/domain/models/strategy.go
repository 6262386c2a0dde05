package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BrokerKind is the enum tag selecting a broker client implementation.
// Adding a broker means adding a tag plus a client; dispatch code never
// branches on the concrete type outside the registry lookup.
type BrokerKind string

const (
	BrokerAlpaca BrokerKind = "alpaca"
)

// Valid reports whether the tag names a known broker.
func (k BrokerKind) Valid() bool {
	return k == BrokerAlpaca
}

// Strategy binds a strategy id to a broker and a retry policy. Loaded once at
// startup and read-only for the process lifetime.
type Strategy struct {
	ID         uuid.UUID
	Name       string
	Enabled    bool
	Broker     BrokerKind
	OrderQty   decimal.Decimal
	MaxRetries uint8         // additional attempts after the first
	RetryDelay time.Duration // fixed wait between attempts
}
