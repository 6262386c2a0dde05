package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alloc33/market/internal/domain/models"
	domrepo "github.com/alloc33/market/internal/domain/repository"
)

// AlertsDDL creates the append-only alerts table. Ordered by alert_id so
// UUIDv7 ids keep rows roughly time-sorted.
func AlertsDDL(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.alerts (
			alert_id UUID,
			ticker String,
			timeframe String,
			exchange String,
			alert_type String,
			bar_time DateTime64(3, 'UTC'),
			bar_open Decimal64(8),
			bar_high Decimal64(8),
			bar_low Decimal64(8),
			bar_close Decimal64(8),
			bar_volume Int64,
			alert_fire_time DateTime64(3, 'UTC'),
			created_at DateTime64(3, 'UTC'),
			modified_at DateTime64(3, 'UTC')
		) ENGINE=MergeTree ORDER BY (alert_id)`, database),
	}
}

// ClickHouseAlertStore implements the durable alert log on ClickHouse.
type ClickHouseAlertStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseAlertStore creates the store over an existing pool.
func NewClickHouseAlertStore(db *sql.DB, table string) domrepo.AlertStore {
	return &ClickHouseAlertStore{db: db, table: table}
}

func (s *ClickHouseAlertStore) Append(ctx context.Context, rec *models.AlertRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (
		alert_id, ticker, timeframe, exchange, alert_type,
		bar_time, bar_open, bar_high, bar_low, bar_close, bar_volume,
		alert_fire_time, created_at, modified_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	_, err := s.db.ExecContext(ctx, q,
		rec.AlertID,
		rec.Ticker,
		rec.Timeframe,
		rec.Exchange,
		string(rec.AlertType),
		rec.Bar.Time,
		rec.Bar.Open,
		rec.Bar.High,
		rec.Bar.Low,
		rec.Bar.Close,
		rec.Bar.Volume,
		rec.FireTime,
		rec.CreatedAt,
		rec.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

func (s *ClickHouseAlertStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AlertRecord, error) {
	q := fmt.Sprintf(`SELECT
		alert_id, ticker, timeframe, exchange, alert_type,
		bar_time, bar_open, bar_high, bar_low, bar_close, bar_volume,
		alert_fire_time, created_at, modified_at
	FROM %s
	WHERE ticker = ? AND alert_fire_time >= ? AND alert_fire_time <= ?
	ORDER BY alert_fire_time DESC
	LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, ticker, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var recs []*models.AlertRecord
	for rows.Next() {
		var (
			rec       models.AlertRecord
			id        uuid.UUID
			alertType string
		)
		if err := rows.Scan(
			&id, &rec.Ticker, &rec.Timeframe, &rec.Exchange, &alertType,
			&rec.Bar.Time, &rec.Bar.Open, &rec.Bar.High, &rec.Bar.Low, &rec.Bar.Close, &rec.Bar.Volume,
			&rec.FireTime, &rec.CreatedAt, &rec.ModifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		rec.AlertID = id
		rec.AlertType = models.AlertType(alertType)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (s *ClickHouseAlertStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAlertStore) Close() error {
	return nil // pool is owned by pkg/clickhouse
}
