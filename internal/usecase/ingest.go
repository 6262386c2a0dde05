// Package usecase wires the alert pipeline: record the alert, validate it
// against the strategy table, and hand it to the dispatch queue.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	"github.com/alloc33/market/internal/strategy"
	"github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

// TypeTradeSignal is the queue message type for alert dispatch.
const TypeTradeSignal = "trade.signal"

// AlertIngestor receives validated alerts from the webhook boundary. It
// records first and dispatches second: an alert that could not be durably
// recorded never trades, and an alert that fails strategy resolution is
// still recorded. The webhook response reflects recording only; execution
// outcome is observability-only.
type AlertIngestor struct {
	log     *logger.Logger
	store   domrepo.AlertStore
	table   *strategy.Table
	brokers *broker.Registry
	queue   queue.QueueService
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
}

func NewAlertIngestor(
	log *logger.Logger,
	store domrepo.AlertStore,
	table *strategy.Table,
	brokers *broker.Registry,
	q queue.QueueService,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
) *AlertIngestor {
	return &AlertIngestor{
		log:     log,
		store:   store,
		table:   table,
		brokers: brokers,
		queue:   q,
		events:  events,
		metrics: metrics,
	}
}

// Ingest processes one alert. Returns nil once the alert is durably recorded
// and either queued for dispatch or rejected by strategy resolution; the
// caller acknowledges the webhook on nil.
func (in *AlertIngestor) Ingest(ctx context.Context, alert models.AlertData) error {
	in.metrics.RecordAlertReceived(alert.Ticker)

	rec := models.NewAlertRecord(alert)
	if err := in.store.Append(ctx, rec); err != nil {
		in.metrics.RecordError("alert_store")
		return fmt.Errorf("record alert: %w", err)
	}
	in.metrics.RecordAlertRecorded()

	// Early resolution so rejects are visible at ingestion time. The
	// dispatch job resolves again from the same immutable table.
	if _, err := strategy.BuildSignal(alert, in.table, in.brokers); err != nil {
		in.reject(ctx, alert, err)
		return nil
	}

	if err := in.queue.PublishMessage(ctx, TypeTradeSignal, alert); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			in.metrics.RecordQueueDrop()
			in.log.Error("dispatch queue full, alert recorded but not dispatched",
				logger.String("ticker", alert.Ticker),
				logger.Stringer("strategy_id", alert.StrategyID))
			return fmt.Errorf("schedule dispatch: %w", err)
		}
		in.metrics.RecordError("dispatch_enqueue")
		return fmt.Errorf("schedule dispatch: %w", err)
	}

	in.log.Info("alert accepted",
		logger.Stringer("alert_id", rec.AlertID),
		logger.String("ticker", alert.Ticker),
		logger.Stringer("strategy_id", alert.StrategyID))
	return nil
}

func (in *AlertIngestor) reject(ctx context.Context, alert models.AlertData, cause error) {
	reason := "resolution"
	switch {
	case errors.Is(cause, strategy.ErrUnknownStrategy):
		reason = "unknown_strategy"
	case errors.Is(cause, strategy.ErrStrategyDisabled):
		reason = "strategy_disabled"
	}
	in.metrics.RecordSignalRejected(reason)
	in.log.Warn("alert rejected, recorded without dispatch",
		logger.String("ticker", alert.Ticker),
		logger.Stringer("strategy_id", alert.StrategyID),
		logger.String("reason", reason),
		logger.Error(cause))

	ev := &models.ExecutionEvent{
		StrategyID: alert.StrategyID.String(),
		Ticker:     alert.Ticker,
		Outcome:    models.OutcomeRejected,
		Error:      cause.Error(),
		Time:       time.Now().UTC(),
	}
	if err := in.events.Publish(ctx, ev); err != nil {
		in.log.Warn("execution event publish failed", logger.Error(err))
	}
}
