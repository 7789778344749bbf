//go:build wireinject
// +build wireinject

package di

import (
	"CryptoPulse/pkg/config"
	"CryptoPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,

		// Repositories
		ProvideSeriesStore,
		ProvideArtifactStore,
		ProvidePriceSource,
		ProvidePublisher,
		ProvideBytesCache,

		// Use cases
		ProvideIngestor,
		ProvideBatchRunner,
		ProvideNowcastService,
		ProvideStreamCollector,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
