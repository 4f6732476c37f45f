//go:build wireinject
// +build wireinject

package di

import (
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRunService,
		ProvideCache,
		ProvideEventPublisher,
		ProvideLastRunStore,

		// Use cases
		ProvideRequestBuilder,
		ProvideOrchestrator,
		ProvideRunEventRelay,

		// HTTP boundary
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
