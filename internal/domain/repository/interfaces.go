package repository

import (
	"context"
	"time"

	"github.com/alloc33/market/internal/domain/models"
)

// AlertStore is the append-only durable log of raw alerts. Appends happen
// before dispatch; a failed append aborts the ingestion request.
type AlertStore interface {
	Append(ctx context.Context, rec *models.AlertRecord) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AlertRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits terminal execution outcomes for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.ExecutionEvent) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordAlertReceived(ticker string)
	RecordAlertRecorded()
	RecordSignalRejected(reason string)
	RecordExecutionAttempt(broker string)
	RecordExecutionOutcome(outcome string)
	RecordRetryScheduled(broker string)
	RecordQueueDrop()
	RecordBrokerLatency(op string, seconds float64)
	RecordError(kind string)
}
