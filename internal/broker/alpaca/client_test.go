package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:   srv.URL,
		KeyID:     "test-key",
		SecretKey: "test-secret",
		Timeout:   2 * time.Second,
	})
	require.NoError(t, err)
	return c, srv
}

func testStrategy() models.Strategy {
	return models.Strategy{
		ID:       uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e"),
		Name:     "orb-breakout-15m",
		Enabled:  true,
		Broker:   models.BrokerAlpaca,
		OrderQty: decimal.NewFromInt(2),
	}
}

func entryAlert() models.AlertData {
	return models.AlertData{
		Ticker:     "aapl",
		Timeframe:  "15m",
		Exchange:   "NASDAQ",
		AlertType:  models.AlertEntry,
		Time:       time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
		StrategyID: uuid.MustParse("9d6bed75-1e24-4bbe-9ad2-0b53e0251f4e"),
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{BaseURL: "https://paper-api.alpaca.markets"})
	require.Error(t, err)

	_, err = New(Config{KeyID: "k", SecretKey: "s"})
	require.Error(t, err)
}

func TestCreateOrderDeterministic(t *testing.T) {
	c, _ := testClient(t, http.NotFoundHandler())
	strat := testStrategy()
	alert := entryAlert()

	first := c.CreateOrder(alert, strat)
	second := c.CreateOrder(alert, strat)

	assert.Equal(t, first, second, "same alert must always build the same order")
	assert.Equal(t, "AAPL", first.Symbol)
	assert.Equal(t, models.SideBuy, first.Side)
	assert.Equal(t, "market", first.Type)
	assert.Equal(t, models.OrderID(strat.ID, alert.Ticker, alert.Time), first.ID)
}

func TestCreateOrderExitSells(t *testing.T) {
	c, _ := testClient(t, http.NotFoundHandler())
	alert := entryAlert()
	alert.AlertType = models.AlertExit

	order := c.CreateOrder(alert, testStrategy())
	assert.Equal(t, models.SideSell, order.Side)
}

func TestExecuteOrderSendsAuthAndClientOrderID(t *testing.T) {
	var got struct {
		payload orderPayload
		keyID   string
		secret  string
		path    string
	}
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.keyID = r.Header.Get("APCA-API-KEY-ID")
		got.secret = r.Header.Get("APCA-API-SECRET-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.payload))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"broker-1","status":"accepted"}`))
	}))

	order := c.CreateOrder(entryAlert(), testStrategy())
	require.NoError(t, c.ExecuteOrder(context.Background(), &order))

	assert.Equal(t, "/v2/orders", got.path)
	assert.Equal(t, "test-key", got.keyID)
	assert.Equal(t, "test-secret", got.secret)
	assert.Equal(t, "AAPL", got.payload.Symbol)
	assert.Equal(t, "2", got.payload.Qty)
	assert.Equal(t, order.ID.String(), got.payload.ClientOrderID,
		"client_order_id must carry the stable order id")
}

func TestErrorKindMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   broker.ErrorKind
	}{
		{http.StatusUnauthorized, broker.KindAuth},
		{http.StatusForbidden, broker.KindAuth},
		{http.StatusNotFound, broker.KindNotFound},
		{http.StatusTooManyRequests, broker.KindRateLimit},
		{http.StatusUnprocessableEntity, broker.KindRejected},
		{http.StatusInternalServerError, broker.KindUnavailable},
		{http.StatusBadGateway, broker.KindUnavailable},
	}

	for _, tc := range cases {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		order := c.CreateOrder(entryAlert(), testStrategy())
		err := c.ExecuteOrder(context.Background(), &order)
		require.Error(t, err)

		var berr *broker.Error
		require.ErrorAs(t, err, &berr, "status %d", tc.status)
		assert.Equal(t, tc.kind, berr.Kind, "status %d", tc.status)
	}
}

func TestGetOrderByClientOrderID(t *testing.T) {
	id := uuid.New()
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders:by_client_order_id", r.URL.Path)
		assert.Equal(t, id.String(), r.URL.Query().Get("client_order_id"))
		_ = json.NewEncoder(w).Encode(orderWire{
			ID:            "broker-42",
			ClientOrderID: id.String(),
			Symbol:        "AAPL",
			Qty:           "2",
			FilledQty:     "1.5",
			Side:          "buy",
			Status:        "partially_filled",
		})
	}))

	order, err := c.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
	assert.Equal(t, "broker-42", order.BrokerID)
	assert.Equal(t, "partially_filled", order.Status)
	assert.True(t, order.FilledQty.Equal(decimal.NewFromFloat(1.5)))
}

func TestCancelOrderLooksUpBrokerID(t *testing.T) {
	id := uuid.New()
	var deleted string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(orderWire{ID: "broker-7", ClientOrderID: id.String()})
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	require.NoError(t, c.CancelOrder(context.Background(), id))
	assert.Equal(t, "/v2/orders/broker-7", deleted)
}

func TestGetAccount(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"acct-1","status":"ACTIVE","currency":"USD","cash":"2500.50"}`))
	}))

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)
	assert.True(t, acct.Cash.Equal(decimal.NewFromFloat(2500.50)))
}

func TestGetAssetsFiltersByClass(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us_equity", r.URL.Query().Get("asset_class"))
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","tradable":true},{"symbol":"TSLA","tradable":true}]`))
	}))

	assets, err := c.GetAssets(context.Background(), models.AssetClassUSEquity)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "AAPL", assets[0].Symbol)
}
