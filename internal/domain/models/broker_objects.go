package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass groups tradable instruments.
type AssetClass string

const (
	AssetClassUSEquity AssetClass = "us_equity"
	AssetClassCrypto   AssetClass = "crypto"
)

// Account is a read-only snapshot of the broker account.
type Account struct {
	ID               string          `json:"id"`
	AccountNumber    string          `json:"account_number"`
	Status           string          `json:"status"`
	Currency         string          `json:"currency"`
	Cash             decimal.Decimal `json:"cash"`
	PortfolioValue   decimal.Decimal `json:"portfolio_value"`
	BuyingPower      decimal.Decimal `json:"buying_power"`
	Equity           decimal.Decimal `json:"equity"`
	PatternDayTrader bool            `json:"pattern_day_trader"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Asset describes one tradable instrument.
type Asset struct {
	ID           string     `json:"id"`
	Class        AssetClass `json:"class"`
	Exchange     string     `json:"exchange"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Tradable     bool       `json:"tradable"`
	Marginable   bool       `json:"marginable"`
	Shortable    bool       `json:"shortable"`
	Fractionable bool       `json:"fractionable"`
}

// Position is a read-only snapshot of one open position.
type Position struct {
	AssetID       string          `json:"asset_id"`
	Symbol        string          `json:"symbol"`
	Exchange      string          `json:"exchange"`
	Side          string          `json:"side"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
}

// ExecutionEvent is the terminal outcome of one dispatch, published for
// downstream observability. Execution results are never fed back to the
// alert source.
type ExecutionEvent struct {
	StrategyID string    `json:"strategy_id"`
	Ticker     string    `json:"ticker"`
	OrderID    string    `json:"order_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Attempts   int       `json:"attempts,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

const (
	OutcomeSucceeded  = "succeeded"
	OutcomeMaxRetries = "max_retries_reached"
	OutcomeRejected   = "rejected"
)
