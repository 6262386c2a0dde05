// Package broker defines the capability surface every trading venue client
// implements, plus the registry that maps a strategy's broker tag to a
// concrete client.
package broker

import (
	"context"

	"github.com/google/uuid"

	"github.com/alloc33/market/internal/domain/models"
)

// Client is the full capability set of one broker backend. Implementations
// must be safe for concurrent use; the same client services many in-flight
// signals at once.
type Client interface {
	// CreateOrder is pure construction: deterministic for the same alert,
	// no network effect.
	CreateOrder(alert models.AlertData, strat models.Strategy) models.Order

	// ExecuteOrder submits the order. The side effect is external and
	// at-least-once from the caller's perspective; callers resubmit the
	// same order on retry.
	ExecuteOrder(ctx context.Context, order *models.Order) error

	CancelOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error)
	GetOrders(ctx context.Context, q models.OrdersQuery) ([]models.Order, error)
	GetAccount(ctx context.Context) (models.Account, error)
	GetAsset(ctx context.Context, symbol string) (models.Asset, error)
	GetAssets(ctx context.Context, class models.AssetClass) ([]models.Asset, error)
	GetPositions(ctx context.Context) ([]models.Position, error)
}
