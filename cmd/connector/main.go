package main

import (
	"nocturne/commons/config"
	"nocturne/commons/server"
	internalConfig "nocturne/internal/config"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.WithLogger(config.ProvideFxLogger),
		fx.Provide(
			config.ProvideLogger,
			config.ProvideRouteDependencies,
			config.ProvideSQSClient,
			config.ProvideRedisCache,
			config.ProvideDynamoDBClient,
			config.ProvideLeaderElector,
			internalConfig.ProvideStateSpanRepository,
			internalConfig.ProvideUpsertLocker,
			internalConfig.ProvideBroadcastPublisher,
			internalConfig.ProvideStateSpanService,
			internalConfig.ProvideUpstreamClient,
			internalConfig.ProvideEventFilter,
			internalConfig.ProvideSyncService,
			internalConfig.ProvideConnectorHealthHandler,
			internalConfig.ProvideSyncHandler,
			internalConfig.ProvideConnectorRouterConfig,
			internalConfig.ProvideConnectorServerConfig,
			internalConfig.ProvideConnectorRouteInitializer,
			config.ProvideRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(internalConfig.ManageSyncLifecycle),
	).Run()
}
