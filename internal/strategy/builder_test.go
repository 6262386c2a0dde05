package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
)

type fakeClient struct{}

func (fakeClient) CreateOrder(alert models.AlertData, strat models.Strategy) models.Order {
	return models.Order{ID: models.OrderID(strat.ID, alert.Ticker, alert.Time)}
}
func (fakeClient) ExecuteOrder(context.Context, *models.Order) error      { return nil }
func (fakeClient) CancelOrder(context.Context, uuid.UUID) error           { return nil }
func (fakeClient) GetOrder(context.Context, uuid.UUID) (models.Order, error) {
	return models.Order{}, nil
}
func (fakeClient) GetOrders(context.Context, models.OrdersQuery) ([]models.Order, error) {
	return nil, nil
}
func (fakeClient) GetAccount(context.Context) (models.Account, error) { return models.Account{}, nil }
func (fakeClient) GetAsset(context.Context, string) (models.Asset, error) {
	return models.Asset{}, nil
}
func (fakeClient) GetAssets(context.Context, models.AssetClass) ([]models.Asset, error) {
	return nil, nil
}
func (fakeClient) GetPositions(context.Context) ([]models.Position, error) { return nil, nil }

func testStrategies() (*Table, *broker.Registry) {
	enabled := models.Strategy{
		ID:         uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e"),
		Name:       "orb-breakout-15m",
		Enabled:    true,
		Broker:     models.BrokerAlpaca,
		OrderQty:   decimal.NewFromInt(1),
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
	disabled := enabled
	disabled.ID = uuid.MustParse("2f3b82f4-9e3f-4c46-9a8f-6c1f9d0ddc41")
	disabled.Name = "vwap-reversion-5m"
	disabled.Enabled = false

	reg := broker.NewRegistry()
	_ = reg.Register(models.BrokerAlpaca, fakeClient{})
	return NewTable([]models.Strategy{enabled, disabled}), reg
}

func alertFor(id uuid.UUID) models.AlertData {
	return models.AlertData{
		Ticker:     "AAPL",
		Timeframe:  "15m",
		Exchange:   "NASDAQ",
		AlertType:  models.AlertEntry,
		Time:       time.Now().UTC(),
		StrategyID: id,
	}
}

func TestBuildSignalResolves(t *testing.T) {
	tbl, reg := testStrategies()

	sig, err := BuildSignal(alertFor(uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e")), tbl, reg)
	require.NoError(t, err)
	assert.Equal(t, "orb-breakout-15m", sig.Strategy.Name)
	assert.NotNil(t, sig.Client)
}

func TestBuildSignalUnknownStrategy(t *testing.T) {
	tbl, reg := testStrategies()

	_, err := BuildSignal(alertFor(uuid.New()), tbl, reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestBuildSignalDisabledStrategy(t *testing.T) {
	tbl, reg := testStrategies()

	_, err := BuildSignal(alertFor(uuid.MustParse("2f3b82f4-9e3f-4c46-9a8f-6c1f9d0ddc41")), tbl, reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStrategyDisabled)
}

func TestBuildSignalMissingClient(t *testing.T) {
	tbl, _ := testStrategies()
	empty := broker.NewRegistry()

	_, err := BuildSignal(alertFor(uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e")), tbl, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no client registered")
}
