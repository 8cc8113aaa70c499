package main

import (
	"nocturne/commons/config"
	"nocturne/commons/server"
	internalConfig "nocturne/internal/config"
	ingest_init "nocturne/internal/consumer/ingest_queue/init"

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
			internalConfig.ProvideStateSpanRepository,
			internalConfig.ProvideTreatmentRepository,
			internalConfig.ProvideUpsertLocker,
			internalConfig.ProvideBroadcastPublisher,
			internalConfig.ProvideStateSpanService,
			internalConfig.ProvideTreatmentService,
			internalConfig.ProvideIngestQueueURL,
			internalConfig.ProvideAPIHealthHandler,
			internalConfig.ProvideStateSpanHandler,
			internalConfig.ProvideTreatmentHandler,
			internalConfig.ProvideAPIRouterConfig,
			internalConfig.ProvideAPIServerConfig,
			internalConfig.ProvideAPIRouteInitializer,
			config.ProvideRouter,
			server.NewHTTPServer,
		),
		ingest_init.IngestQueueModule(),
		fx.Invoke(func(*server.HTTPServer) {}),
	).Run()
}
