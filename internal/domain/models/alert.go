package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType classifies what the signal source wants the strategy to do.
type AlertType string

const (
	AlertEntry AlertType = "entry"
	AlertExit  AlertType = "exit"
	AlertScale AlertType = "scale"
)

// Bar is the OHLCV candle attached to an alert. Prices are fixed-precision
// decimals; float64 is not acceptable for money.
type Bar struct {
	Time   time.Time       `json:"time" validate:"required"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume" validate:"gte=0"`
}

// AlertData is one webhook alert as received from the signal source.
// Immutable once received.
type AlertData struct {
	Ticker     string    `json:"ticker" validate:"required"`
	Timeframe  string    `json:"timeframe" validate:"required"`
	Exchange   string    `json:"exchange" validate:"required"`
	AlertType  AlertType `json:"alert_type" validate:"required,oneof=entry exit scale"`
	Bar        Bar       `json:"bar" validate:"required"`
	Time       time.Time `json:"time" validate:"required"`
	StrategyID uuid.UUID `json:"strategy_id" validate:"required"`
}

// AlertRecord is the durable form of an alert, written to storage before any
// dispatch happens. AlertID is time-sortable (UUIDv7).
type AlertRecord struct {
	AlertID    uuid.UUID
	Ticker     string
	Timeframe  string
	Exchange   string
	AlertType  AlertType
	Bar        Bar
	FireTime   time.Time
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NewAlertRecord stamps an alert with a fresh id and timestamps.
func NewAlertRecord(a AlertData) *AlertRecord {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4
		// rather than dropping the alert.
		id = uuid.New()
	}
	now := time.Now().UTC()
	return &AlertRecord{
		AlertID:    id,
		Ticker:     a.Ticker,
		Timeframe:  a.Timeframe,
		Exchange:   a.Exchange,
		AlertType:  a.AlertType,
		Bar:        a.Bar,
		FireTime:   a.Time,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}
