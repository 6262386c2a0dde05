package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alloc33/market/pkg/logger"
)

// Stream follows the Alpaca trade_updates WebSocket so order fills show up
// in the logs without polling. Observability only: nothing downstream of the
// executor consumes these events.
type Stream struct {
	cfg  Config
	log  *logger.Logger
	conn *websocket.Conn
}

// NewStream creates an order-update stream listener.
func NewStream(cfg Config, log *logger.Logger) *Stream {
	return &Stream{cfg: cfg, log: log}
}

func (s *Stream) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("alpaca stream connect: %w", err)
	}
	s.conn = conn

	auth := map[string]interface{}{
		"action": "auth",
		"key":    s.cfg.KeyID,
		"secret": s.cfg.SecretKey,
	}
	if err := conn.WriteJSON(auth); err != nil {
		_ = conn.Close()
		return fmt.Errorf("alpaca stream auth: %w", err)
	}

	listen := map[string]interface{}{
		"action": "listen",
		"data":   map[string][]string{"streams": {"trade_updates"}},
	}
	if err := conn.WriteJSON(listen); err != nil {
		_ = conn.Close()
		return fmt.Errorf("alpaca stream listen: %w", err)
	}
	return nil
}

type streamFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Event string `json:"event"`
		Order struct {
			ClientOrderID string `json:"client_order_id"`
			Symbol        string `json:"symbol"`
			FilledQty     string `json:"filled_qty"`
			Status        string `json:"status"`
		} `json:"order"`
	} `json:"data"`
}

// Run connects and consumes trade updates until ctx is cancelled,
// reconnecting on read errors.
func (s *Stream) Run(ctx context.Context) error {
	for {
		if err := s.connect(ctx); err != nil {
			s.log.Warn("alpaca stream connect failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				continue
			}
		}
		s.log.Info("alpaca stream connected")

		if err := s.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("alpaca stream read error, reconnecting", logger.Error(err))
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, b, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		var f streamFrame
		if err := json.Unmarshal(b, &f); err != nil {
			// control frames and auth acks are not trade updates
			continue
		}
		if f.Stream != "trade_updates" {
			continue
		}
		s.log.Info("order update",
			logger.String("event", f.Data.Event),
			logger.String("symbol", f.Data.Order.Symbol),
			logger.String("client_order_id", f.Data.Order.ClientOrderID),
			logger.String("status", f.Data.Order.Status),
			logger.String("filled_qty", f.Data.Order.FilledQty),
		)
	}
}

// Close closes the current connection if any.
func (s *Stream) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
