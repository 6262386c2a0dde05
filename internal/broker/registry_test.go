package broker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloc33/market/internal/domain/models"
)

type nopClient struct{}

func (nopClient) CreateOrder(models.AlertData, models.Strategy) models.Order { return models.Order{} }
func (nopClient) ExecuteOrder(context.Context, *models.Order) error          { return nil }
func (nopClient) CancelOrder(context.Context, uuid.UUID) error               { return nil }
func (nopClient) GetOrder(context.Context, uuid.UUID) (models.Order, error) {
	return models.Order{}, nil
}
func (nopClient) GetOrders(context.Context, models.OrdersQuery) ([]models.Order, error) {
	return nil, nil
}
func (nopClient) GetAccount(context.Context) (models.Account, error) { return models.Account{}, nil }
func (nopClient) GetAsset(context.Context, string) (models.Asset, error) {
	return models.Asset{}, nil
}
func (nopClient) GetAssets(context.Context, models.AssetClass) ([]models.Asset, error) {
	return nil, nil
}
func (nopClient) GetPositions(context.Context) ([]models.Position, error) { return nil, nil }

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(models.BrokerAlpaca, nopClient{}))

	c, ok := reg.Resolve(models.BrokerAlpaca)
	assert.True(t, ok)
	assert.NotNil(t, c)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(models.BrokerAlpaca, nopClient{}))

	err := reg.Register(models.BrokerAlpaca, nopClient{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryResolveMissing(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Resolve(models.BrokerKind("interactive_brokers"))
	assert.False(t, ok)
}
