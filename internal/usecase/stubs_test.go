package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	"github.com/alloc33/market/internal/strategy"
)

var (
	strategyID = uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e")
	disabledID = uuid.MustParse("2f3b82f4-9e3f-4c46-9a8f-6c1f9d0ddc41")
)

func testTable() *strategy.Table {
	enabled := models.Strategy{
		ID:         strategyID,
		Name:       "orb-breakout-15m",
		Enabled:    true,
		Broker:     models.BrokerAlpaca,
		OrderQty:   decimal.NewFromInt(1),
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
	disabled := enabled
	disabled.ID = disabledID
	disabled.Name = "vwap-reversion-5m"
	disabled.Enabled = false
	return strategy.NewTable([]models.Strategy{enabled, disabled})
}

func testAlert(id uuid.UUID) models.AlertData {
	return models.AlertData{
		Ticker:     "AAPL",
		Timeframe:  "15m",
		Exchange:   "NASDAQ",
		AlertType:  models.AlertEntry,
		Bar: models.Bar{
			Time:   time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
			Open:   decimal.NewFromFloat(201.10),
			High:   decimal.NewFromFloat(202.35),
			Low:    decimal.NewFromFloat(200.80),
			Close:  decimal.NewFromFloat(202.00),
			Volume: 1_204_500,
		},
		Time:       time.Date(2025, 6, 2, 14, 30, 5, 0, time.UTC),
		StrategyID: id,
	}
}

// memStore is an in-memory AlertStore.
type memStore struct {
	mu      sync.Mutex
	recs    []*models.AlertRecord
	failure error
}

func (s *memStore) Append(ctx context.Context, rec *models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AlertRecord
	for _, r := range s.recs {
		if r.Ticker == ticker {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Health(ctx context.Context) error { return nil }
func (s *memStore) Close() error                     { return nil }

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// eventRecorder captures published execution events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*models.ExecutionEvent
}

func (r *eventRecorder) Publish(ctx context.Context, ev *models.ExecutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) Close() error { return nil }

func (r *eventRecorder) all() []*models.ExecutionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.ExecutionEvent(nil), r.events...)
}

// metricsStub counts the recorder calls the tests care about.
type metricsStub struct {
	mu        sync.Mutex
	received  int
	recorded  int
	rejected  map[string]int
	drops     int
	errors    map[string]int
	attempts  int
	outcomes  map[string]int
	scheduled int
}

func newMetricsStub() *metricsStub {
	return &metricsStub{
		rejected: make(map[string]int),
		errors:   make(map[string]int),
		outcomes: make(map[string]int),
	}
}

func (m *metricsStub) RecordAlertReceived(string) { m.mu.Lock(); m.received++; m.mu.Unlock() }
func (m *metricsStub) RecordAlertRecorded()       { m.mu.Lock(); m.recorded++; m.mu.Unlock() }

func (m *metricsStub) RecordSignalRejected(reason string) {
	m.mu.Lock()
	m.rejected[reason]++
	m.mu.Unlock()
}

func (m *metricsStub) RecordExecutionAttempt(string) { m.mu.Lock(); m.attempts++; m.mu.Unlock() }

func (m *metricsStub) RecordExecutionOutcome(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *metricsStub) RecordRetryScheduled(string) { m.mu.Lock(); m.scheduled++; m.mu.Unlock() }
func (m *metricsStub) RecordQueueDrop()            { m.mu.Lock(); m.drops++; m.mu.Unlock() }

func (m *metricsStub) RecordBrokerLatency(string, float64) {}

func (m *metricsStub) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

// queueStub records publishes and optionally refuses them.
type queueStub struct {
	mu       sync.Mutex
	messages []interface{}
	failure  error
}

func (q *queueStub) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failure != nil {
		return q.failure
	}
	q.messages = append(q.messages, payload)
	return nil
}

func (q *queueStub) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// brokerStub fails the first `failures` submissions and counts calls.
type brokerStub struct {
	mu       sync.Mutex
	failures int
	calls    int
}

var errVenue = errors.New("venue unavailable")

func (b *brokerStub) CreateOrder(alert models.AlertData, strat models.Strategy) models.Order {
	return models.Order{
		ID:          models.OrderID(strat.ID, alert.Ticker, alert.Time),
		Symbol:      strings.ToUpper(alert.Ticker),
		Side:        models.SideForAlert(alert.AlertType),
		Type:        "market",
		Qty:         strat.OrderQty,
		TimeInForce: "day",
		Broker:      strat.Broker,
		StrategyID:  strat.ID,
		CreatedAt:   alert.Time,
	}
}

func (b *brokerStub) ExecuteOrder(ctx context.Context, order *models.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.calls <= b.failures {
		return errVenue
	}
	return nil
}

func (b *brokerStub) attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *brokerStub) CancelOrder(context.Context, uuid.UUID) error { return nil }

func (b *brokerStub) GetOrder(context.Context, uuid.UUID) (models.Order, error) {
	return models.Order{}, nil
}

func (b *brokerStub) GetOrders(context.Context, models.OrdersQuery) ([]models.Order, error) {
	return nil, nil
}

func (b *brokerStub) GetAccount(context.Context) (models.Account, error) {
	return models.Account{}, nil
}

func (b *brokerStub) GetAsset(context.Context, string) (models.Asset, error) {
	return models.Asset{}, nil
}

func (b *brokerStub) GetAssets(context.Context, models.AssetClass) ([]models.Asset, error) {
	return nil, nil
}

func (b *brokerStub) GetPositions(context.Context) ([]models.Position, error) { return nil, nil }

func testRegistry(c broker.Client) *broker.Registry {
	reg := broker.NewRegistry()
	_ = reg.Register(models.BrokerAlpaca, c)
	return reg
}
