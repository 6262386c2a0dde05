package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/domain/models"
	"github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

func newIngestor(store *memStore, q *queueStub, events *eventRecorder, m *metricsStub) *AlertIngestor {
	return NewAlertIngestor(logger.Nop(), store, testTable(), testRegistry(&brokerStub{}), q, events, m)
}

func TestIngestRecordsAndQueues(t *testing.T) {
	store := &memStore{}
	q := &queueStub{}
	events := &eventRecorder{}
	m := newMetricsStub()

	err := newIngestor(store, q, events, m).Ingest(context.Background(), testAlert(strategyID))
	require.NoError(t, err)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, q.count())
	assert.Equal(t, 1, m.received)
	assert.Equal(t, 1, m.recorded)
	assert.Empty(t, events.all())
}

func TestIngestStoreFailureAbortsDispatch(t *testing.T) {
	store := &memStore{failure: errors.New("clickhouse down")}
	q := &queueStub{}

	err := newIngestor(store, q, &eventRecorder{}, newMetricsStub()).
		Ingest(context.Background(), testAlert(strategyID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record alert")
	assert.Equal(t, 0, q.count(), "unrecorded alert must never trade")
}

func TestIngestUnknownStrategyRecordedNotDispatched(t *testing.T) {
	store := &memStore{}
	q := &queueStub{}
	events := &eventRecorder{}
	m := newMetricsStub()

	err := newIngestor(store, q, events, m).Ingest(context.Background(), testAlert(uuid.New()))
	require.NoError(t, err, "rejection is not an ingestion failure")

	assert.Equal(t, 1, store.count(), "rejected alerts are still recorded")
	assert.Equal(t, 0, q.count())
	assert.Equal(t, 1, m.rejected["unknown_strategy"])

	evs := events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, models.OutcomeRejected, evs[0].Outcome)
}

func TestIngestDisabledStrategyRecordedNotDispatched(t *testing.T) {
	store := &memStore{}
	q := &queueStub{}
	m := newMetricsStub()

	err := newIngestor(store, q, &eventRecorder{}, m).Ingest(context.Background(), testAlert(disabledID))
	require.NoError(t, err)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 0, q.count())
	assert.Equal(t, 1, m.rejected["strategy_disabled"])
}

func TestIngestQueueFullSurfaces(t *testing.T) {
	store := &memStore{}
	q := &queueStub{failure: queue.ErrQueueFull}
	m := newMetricsStub()

	err := newIngestor(store, q, &eventRecorder{}, m).Ingest(context.Background(), testAlert(strategyID))
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Equal(t, 1, store.count(), "the alert is recorded even when dispatch is refused")
	assert.Equal(t, 1, m.drops)
}
