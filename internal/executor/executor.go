// Package executor drives one order through the broker with a bounded retry
// loop.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	"github.com/alloc33/market/internal/strategy"
	"github.com/alloc33/market/pkg/logger"
)

// MaxRetriesError is the terminal failure of one dispatch: the retry budget
// is spent and the order was never accepted. The core takes no compensating
// action; the caller logs it and moves on.
type MaxRetriesError struct {
	Order    models.Order
	Attempts int
	Err      error // last broker error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("max retries reached after %d attempts for order %s: %v", e.Attempts, e.Order, e.Err)
}

func (e *MaxRetriesError) Unwrap() error { return e.Err }

// Executor runs the retry state machine for trade signals. Stateless across
// signals: every Execute call is an independent unit of work, so any number
// of signals can be in flight concurrently.
type Executor struct {
	log     *logger.Logger
	metrics domrepo.Metrics
}

func New(log *logger.Logger, metrics domrepo.Metrics) *Executor {
	return &Executor{log: log, metrics: metrics}
}

// Execute constructs one order for the signal and submits it until it
// succeeds or the strategy's retry budget is spent. MaxRetries counts
// additional attempts after the first; the configured delay is a fixed wait
// between attempts, reproduced exactly as configured. Attempts for one
// signal are strictly sequential, and no lock is held across the delay.
func (e *Executor) Execute(ctx context.Context, sig *strategy.TradeSignal) error {
	order := sig.Client.CreateOrder(sig.Alert, sig.Strategy)

	brokerTag := string(sig.Strategy.Broker)
	maxRetries := int(sig.Strategy.MaxRetries)
	attempts := 0

	for {
		e.metrics.RecordExecutionAttempt(brokerTag)
		start := time.Now()
		err := sig.Client.ExecuteOrder(ctx, &order)
		e.metrics.RecordBrokerLatency("execute_order", time.Since(start).Seconds())

		if err == nil {
			e.metrics.RecordExecutionOutcome(models.OutcomeSucceeded)
			e.log.Info("order executed",
				logger.Stringer("order", order),
				logger.String("strategy", sig.Strategy.Name),
				logger.Int("attempt", attempts+1),
			)
			return nil
		}

		attempts++
		if attempts > maxRetries {
			e.metrics.RecordExecutionOutcome(models.OutcomeMaxRetries)
			return &MaxRetriesError{Order: order, Attempts: attempts, Err: err}
		}

		e.metrics.RecordRetryScheduled(brokerTag)
		e.log.Warn("order execution failed, retry scheduled",
			logger.Stringer("order", order),
			logger.String("strategy", sig.Strategy.Name),
			logger.Int("attempt", attempts),
			logger.Int("retries_left", maxRetries-attempts+1),
			logger.Duration("delay", sig.Strategy.RetryDelay),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("execution abandoned: %w", ctx.Err())
		case <-time.After(sig.Strategy.RetryDelay):
		}
	}
}
