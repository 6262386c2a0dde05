package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/domain/models"
	xlogger "github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

type ingestorStub struct {
	alerts  []models.AlertData
	failure error
}

func (s *ingestorStub) Ingest(ctx context.Context, alert models.AlertData) error {
	if s.failure != nil {
		return s.failure
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

const validAlertJSON = `{
	"ticker": "AAPL",
	"timeframe": "15m",
	"exchange": "NASDAQ",
	"alert_type": "entry",
	"bar": {
		"time": "2025-06-02T14:30:00Z",
		"open": "201.10",
		"high": "202.35",
		"low": "200.80",
		"close": "202.00",
		"volume": 1204500
	},
	"time": "2025-06-02T14:30:05Z",
	"strategy_id": "9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e"
}`

func postAlert(t *testing.T, ing Ingestor, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook/alert", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebhookHandler(xlogger.Nop(), ing)
	require.NoError(t, h.Alert(c))
	return rec
}

func TestWebhookAcceptsValidAlert(t *testing.T) {
	ing := &ingestorStub{}
	rec := postAlert(t, ing, validAlertJSON)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, ing.alerts, 1)
	assert.Equal(t, "AAPL", ing.alerts[0].Ticker)
	assert.Equal(t, models.AlertEntry, ing.alerts[0].AlertType)
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	ing := &ingestorStub{}
	rec := postAlert(t, ing, `{"ticker": "AAPL"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ing.alerts, "invalid alerts never reach ingestion")
}

func TestWebhookRejectsBadAlertType(t *testing.T) {
	body := strings.Replace(validAlertJSON, `"entry"`, `"yolo"`, 1)
	rec := postAlert(t, &ingestorStub{}, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookQueueFullIs503(t *testing.T) {
	ing := &ingestorStub{failure: queue.ErrQueueFull}
	rec := postAlert(t, ing, validAlertJSON)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhookStoreFailureIs500(t *testing.T) {
	ing := &ingestorStub{failure: errors.New("record alert: clickhouse down")}
	rec := postAlert(t, ing, validAlertJSON)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
