package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	"github.com/alloc33/market/pkg/http/middleware"
	xlogger "github.com/alloc33/market/pkg/logger"
)

type storeStub struct {
	healthErr error
	recs      []*models.AlertRecord
}

func (s *storeStub) Append(ctx context.Context, rec *models.AlertRecord) error { return nil }

func (s *storeStub) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.AlertRecord, error) {
	return s.recs, nil
}

func (s *storeStub) Health(ctx context.Context) error { return s.healthErr }
func (s *storeStub) Close() error                     { return nil }

type queryClientStub struct {
	positions []models.Position
	err       error
}

func (c *queryClientStub) CreateOrder(models.AlertData, models.Strategy) models.Order {
	return models.Order{}
}
func (c *queryClientStub) ExecuteOrder(context.Context, *models.Order) error { return nil }
func (c *queryClientStub) CancelOrder(context.Context, uuid.UUID) error      { return nil }
func (c *queryClientStub) GetOrder(context.Context, uuid.UUID) (models.Order, error) {
	return models.Order{}, c.err
}
func (c *queryClientStub) GetOrders(context.Context, models.OrdersQuery) ([]models.Order, error) {
	return nil, c.err
}
func (c *queryClientStub) GetAccount(context.Context) (models.Account, error) {
	return models.Account{ID: "acct-1"}, c.err
}
func (c *queryClientStub) GetAsset(context.Context, string) (models.Asset, error) {
	return models.Asset{}, c.err
}
func (c *queryClientStub) GetAssets(context.Context, models.AssetClass) ([]models.Asset, error) {
	return nil, c.err
}
func (c *queryClientStub) GetPositions(context.Context) ([]models.Position, error) {
	return c.positions, c.err
}

func testRouter(t *testing.T, client broker.Client, store *storeStub) *echo.Echo {
	t.Helper()
	reg := broker.NewRegistry()
	require.NoError(t, reg.Register(models.BrokerAlpaca, client))

	log := xlogger.Nop()
	r := NewRouter(log,
		NewWebhookHandler(log, &ingestorStub{}),
		NewQueryHandler(log, reg, store),
		store,
		"test-api-key",
	)

	e := echo.New()
	r.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set(middleware.HeaderAPIKey, apiKey)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuthRequired(t *testing.T) {
	e := testRouter(t, &queryClientStub{}, &storeStub{})
	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthDegradedWhenStoreDown(t *testing.T) {
	e := testRouter(t, &queryClientStub{}, &storeStub{healthErr: errors.New("connection refused")})
	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresKey(t *testing.T) {
	e := testRouter(t, &queryClientStub{}, &storeStub{})

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/positions", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/positions", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/webhook/alert", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/positions", "test-api-key").Code)
}

func TestPositionsPassThrough(t *testing.T) {
	client := &queryClientStub{positions: []models.Position{{Symbol: "AAPL"}, {Symbol: "TSLA"}}}
	e := testRouter(t, client, &storeStub{})

	rec := do(e, http.MethodGet, "/api/positions", "test-api-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Rows  []models.Position `json:"rows"`
			Total int64             `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Data.Total)
	assert.Equal(t, "AAPL", body.Data.Rows[0].Symbol)
}

func TestUnknownBrokerIs400(t *testing.T) {
	e := testRouter(t, &queryClientStub{}, &storeStub{})
	rec := do(e, http.MethodGet, "/api/account?broker=interactive_brokers", "test-api-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBrokerOutageIs502(t *testing.T) {
	client := &queryClientStub{err: broker.NewError(broker.KindUnavailable, "get_account", errors.New("status 503"))}
	e := testRouter(t, client, &storeStub{})

	rec := do(e, http.MethodGet, "/api/account", "test-api-key")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOrderNotFoundIs404(t *testing.T) {
	client := &queryClientStub{err: broker.NewError(broker.KindNotFound, "get_order", errors.New("status 404"))}
	e := testRouter(t, client, &storeStub{})

	rec := do(e, http.MethodGet, "/api/order/"+uuid.NewString(), "test-api-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlertsRequiresTicker(t *testing.T) {
	e := testRouter(t, &queryClientStub{}, &storeStub{})
	rec := do(e, http.MethodGet, "/api/alerts", "test-api-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
