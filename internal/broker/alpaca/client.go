// Package alpaca implements the broker capability set against the Alpaca
// trading REST API.
package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alloc33/market/internal/broker"
	"github.com/alloc33/market/internal/domain/models"
	xhttp "github.com/alloc33/market/pkg/http"
)

// Config holds Alpaca credentials and endpoints, supplied at construction
// time.
type Config struct {
	BaseURL         string
	StreamURL       string
	KeyID           string
	SecretKey       string
	Timeout         time.Duration
	RateLimitPerMin int
}

// Client talks to one Alpaca account. Safe for concurrent use: the
// underlying HTTP client pools connections and the limiter is mutex-guarded.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *limiter
}

var _ broker.Client = (*Client)(nil)

// New creates an Alpaca client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("alpaca: base url is required")
	}
	if cfg.KeyID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("alpaca: credentials are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 200
	}

	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: newLimiter(float64(cfg.RateLimitPerMin), float64(cfg.RateLimitPerMin)/60.0),
	}, nil
}

// CreateOrder builds the order for an alert. Deterministic: the same alert
// always produces the same order, including its id.
func (c *Client) CreateOrder(alert models.AlertData, strat models.Strategy) models.Order {
	return models.Order{
		ID:          models.OrderID(strat.ID, alert.Ticker, alert.Time),
		Symbol:      strings.ToUpper(alert.Ticker),
		Side:        models.SideForAlert(alert.AlertType),
		Type:        "market",
		Qty:         strat.OrderQty,
		TimeInForce: "day",
		Broker:      models.BrokerAlpaca,
		StrategyID:  strat.ID,
		CreatedAt:   alert.Time,
	}
}

// orderPayload is the POST /v2/orders wire shape. client_order_id carries
// our stable order id so resubmission after a retry dedupes server-side.
type orderPayload struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderWire struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	FilledQty     string `json:"filled_qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	Status        string `json:"status"`
}

// ExecuteOrder submits the order.
func (c *Client) ExecuteOrder(ctx context.Context, order *models.Order) error {
	payload := orderPayload{
		Symbol:        order.Symbol,
		Qty:           order.Qty.String(),
		Side:          string(order.Side),
		Type:          order.Type,
		TimeInForce:   order.TimeInForce,
		ClientOrderID: order.ID.String(),
	}
	return c.do(ctx, "execute_order", xhttp.MethodPost, "/v2/orders", nil, payload, nil)
}

// CancelOrder cancels by our client order id. Cancellation needs the broker
// side id, so this is a lookup followed by a delete.
func (c *Client) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	o, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return c.do(ctx, "cancel_order", xhttp.MethodDelete, "/v2/orders/"+o.BrokerID, nil, nil, nil)
}

// GetOrder fetches one order by our client order id.
func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	var w orderWire
	params := map[string][]string{"client_order_id": {orderID.String()}}
	err := c.do(ctx, "get_order", xhttp.MethodGet, "/v2/orders:by_client_order_id", params, nil, &w)
	if err != nil {
		return models.Order{}, err
	}
	return orderFromWire(w), nil
}

// GetOrders lists orders matching the query.
func (c *Client) GetOrders(ctx context.Context, q models.OrdersQuery) ([]models.Order, error) {
	params := map[string][]string{}
	if q.Status != "" {
		params["status"] = []string{q.Status}
	}
	if q.Limit > 0 {
		params["limit"] = []string{strconv.Itoa(q.Limit)}
	}
	if !q.After.IsZero() {
		params["after"] = []string{q.After.Format(time.RFC3339)}
	}
	if !q.Until.IsZero() {
		params["until"] = []string{q.Until.Format(time.RFC3339)}
	}

	var wires []orderWire
	if err := c.do(ctx, "get_orders", xhttp.MethodGet, "/v2/orders", params, nil, &wires); err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(wires))
	for _, w := range wires {
		orders = append(orders, orderFromWire(w))
	}
	return orders, nil
}

// GetAccount fetches the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (models.Account, error) {
	var acc models.Account
	err := c.do(ctx, "get_account", xhttp.MethodGet, "/v2/account", nil, nil, &acc)
	return acc, err
}

// GetAsset fetches one asset by symbol.
func (c *Client) GetAsset(ctx context.Context, symbol string) (models.Asset, error) {
	var asset models.Asset
	err := c.do(ctx, "get_asset", xhttp.MethodGet, "/v2/assets/"+strings.ToUpper(symbol), nil, nil, &asset)
	return asset, err
}

// GetAssets lists assets of one class.
func (c *Client) GetAssets(ctx context.Context, class models.AssetClass) ([]models.Asset, error) {
	params := map[string][]string{"asset_class": {string(class)}}
	var assets []models.Asset
	err := c.do(ctx, "get_assets", xhttp.MethodGet, "/v2/assets", params, nil, &assets)
	return assets, err
}

// GetPositions lists open positions.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	var positions []models.Position
	err := c.do(ctx, "get_positions", xhttp.MethodGet, "/v2/positions", nil, nil, &positions)
	return positions, err
}

// do runs one REST call with auth headers, rate limiting, and status-to-kind
// error mapping.
func (c *Client) do(ctx context.Context, op, method, path string, params map[string][]string, body, dest interface{}) error {
	if err := c.limiter.wait(ctx); err != nil {
		return broker.NewError(broker.KindRateLimit, op, err)
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      method,
		URL:         c.cfg.BaseURL + path,
		Headers:     c.authHeaders(),
		QueryParams: params,
		Body:        body,
	})
	if err != nil {
		return broker.NewError(broker.KindUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return broker.NewError(kindForStatus(resp.StatusCode), op,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return broker.NewError(broker.KindInternal, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"APCA-API-KEY-ID":     c.cfg.KeyID,
		"APCA-API-SECRET-KEY": c.cfg.SecretKey,
	}
}

func kindForStatus(code int) broker.ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return broker.KindAuth
	case code == http.StatusNotFound:
		return broker.KindNotFound
	case code == http.StatusTooManyRequests:
		return broker.KindRateLimit
	case code == http.StatusUnprocessableEntity:
		return broker.KindRejected
	case code >= 500:
		return broker.KindUnavailable
	default:
		return broker.KindInternal
	}
}

func orderFromWire(w orderWire) models.Order {
	o := models.Order{
		Symbol:      w.Symbol,
		Side:        models.OrderSide(w.Side),
		Type:        w.Type,
		TimeInForce: w.TimeInForce,
		Broker:      models.BrokerAlpaca,
		BrokerID:    w.ID,
		Status:      w.Status,
	}
	if id, err := uuid.Parse(w.ClientOrderID); err == nil {
		o.ID = id
	}
	o.Qty = parseDecimal(w.Qty)
	o.FilledQty = parseDecimal(w.FilledQty)
	return o
}
