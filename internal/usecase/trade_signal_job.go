package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	"github.com/alloc33/market/internal/executor"
	"github.com/alloc33/market/internal/strategy"
	"github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

// TradeSignalJob consumes queued alerts and runs them through the trade
// executor. Queue workers call Handle concurrently; each call is one
// independent retry loop.
type TradeSignalJob struct {
	log     *logger.Logger
	table   *strategy.Table
	brokers *broker.Registry
	exec    *executor.Executor
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
}

func NewTradeSignalJob(
	log *logger.Logger,
	table *strategy.Table,
	brokers *broker.Registry,
	exec *executor.Executor,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
) *TradeSignalJob {
	return &TradeSignalJob{
		log:     log,
		table:   table,
		brokers: brokers,
		exec:    exec,
		events:  events,
		metrics: metrics,
	}
}

func (j *TradeSignalJob) Name() string { return "trade-signal-executor" }

func (j *TradeSignalJob) Type() string { return TypeTradeSignal }

// Handle rebuilds the trade signal from the queued alert and executes it.
// Rebuilding (rather than queueing the resolved signal) keeps the payload
// serializable for the redis backend; the table is immutable so both
// resolutions agree.
func (j *TradeSignalJob) Handle(ctx context.Context, payload interface{}) error {
	alert, err := queue.ParsePayload[models.AlertData](payload)
	if err != nil {
		j.metrics.RecordError("dispatch_payload")
		return fmt.Errorf("parse trade signal payload: %w", err)
	}

	sig, err := strategy.BuildSignal(*alert, j.table, j.brokers)
	if err != nil {
		// Already counted at ingestion; reaching here means the signal
		// raced a restart with a different strategy file.
		j.log.Error("signal resolution failed at dispatch",
			logger.Stringer("strategy_id", alert.StrategyID),
			logger.Error(err))
		return err
	}

	execErr := j.exec.Execute(ctx, sig)
	if execErr == nil {
		j.publish(ctx, &models.ExecutionEvent{
			StrategyID: sig.Strategy.ID.String(),
			Ticker:     alert.Ticker,
			OrderID:    models.OrderID(sig.Strategy.ID, alert.Ticker, alert.Time).String(),
			Outcome:    models.OutcomeSucceeded,
			Time:       time.Now().UTC(),
		})
		return nil
	}

	var maxErr *executor.MaxRetriesError
	if errors.As(execErr, &maxErr) {
		j.log.Error("trade execution failed terminally",
			logger.Stringer("order", maxErr.Order),
			logger.String("strategy", sig.Strategy.Name),
			logger.Int("attempts", maxErr.Attempts),
			logger.Error(maxErr.Err))
		j.publish(ctx, &models.ExecutionEvent{
			StrategyID: sig.Strategy.ID.String(),
			Ticker:     alert.Ticker,
			OrderID:    maxErr.Order.ID.String(),
			Outcome:    models.OutcomeMaxRetries,
			Attempts:   maxErr.Attempts,
			Error:      maxErr.Err.Error(),
			Time:       time.Now().UTC(),
		})
		// Terminal by contract: the queue must not redeliver on top of the
		// executor's own budget.
		return nil
	}

	return execErr
}

func (j *TradeSignalJob) publish(ctx context.Context, ev *models.ExecutionEvent) {
	if err := j.events.Publish(ctx, ev); err != nil {
		j.log.Warn("execution event publish failed", logger.Error(err))
	}
}
