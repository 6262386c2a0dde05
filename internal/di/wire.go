//go:build wireinject
// +build wireinject

package di

import (
	"github.com/alloc33/market/pkg/config"
	"github.com/alloc33/market/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideEventPublisher,
		ProvideBrokerRegistry,
		ProvideOrderStream,

		// Repositories
		ProvideAlertStore,

		// Domain
		ProvideStrategyTable,
		ProvideExecutor,

		// Use cases and dispatch
		ProvideTradeSignalJob,
		ProvideDispatchBackend,
		ProvideIngestor,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
