package config

import (
	"nocturne/commons/routes"
	"nocturne/commons/server"
	"nocturne/internal/broadcast"
	cache "nocturne/internal/cache/iface"
	redisCache "nocturne/internal/cache/redis"
	"nocturne/internal/handler"
	"nocturne/internal/logger"
	"nocturne/internal/repository/dynamodb"
	repository "nocturne/internal/repository/iface"
	internalRoutes "nocturne/internal/routes"
	"nocturne/internal/service"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Repository Providers

func ProvideStateSpanRepository(client *awsdynamodb.Client, log logger.Logger) repository.StateSpanRepository {
	return dynamodb.NewStateSpanRepository(client, log)
}

func ProvideTreatmentRepository(client *awsdynamodb.Client, log logger.Logger) repository.TreatmentRepository {
	return dynamodb.NewTreatmentRepository(client, log)
}

// Cache Providers

func ProvideUpsertLocker(c cache.Cache, log logger.Logger) cache.Locker {
	return redisCache.NewKeyLock(c, "upsert", log)
}

// Broadcast Providers

func ProvideBroadcastPublisher(sqsClient *awssqs.Client, log logger.Logger) broadcast.Publisher {
	return broadcast.NewSQSPublisher(
		sqsClient,
		"http://localhost:4566/000000000000/span-changes",
		log,
	)
}

// Service Providers

func ProvideStateSpanService(
	repo repository.StateSpanRepository,
	locker cache.Locker,
	publisher broadcast.Publisher,
	log logger.Logger,
) service.StateSpanService {
	return service.NewStateSpanService(repo, locker, publisher, log)
}

func ProvideTreatmentService(
	treatmentRepo repository.TreatmentRepository,
	spanService service.StateSpanService,
	log logger.Logger,
) service.TreatmentService {
	return service.NewTreatmentService(treatmentRepo, spanService, log)
}

// Queue Providers

type IngestQueueURLResult struct {
	fx.Out

	URL string `name:"ingest_queue_url"`
}

func ProvideIngestQueueURL() IngestQueueURLResult {
	return IngestQueueURLResult{
		URL: "http://localhost:4566/000000000000/span-ingest-queue",
	}
}

// HTTP Providers

func ProvideAPIHealthHandler(log logger.Logger) *handler.HealthHandler {
	return handler.NewHealthHandler(log, "api")
}

func ProvideStateSpanHandler(
	log logger.Logger,
	spanService service.StateSpanService,
) *handler.StateSpanHandler {
	return handler.NewStateSpanHandler(log, spanService)
}

func ProvideTreatmentHandler(
	log logger.Logger,
	treatmentService service.TreatmentService,
) *handler.TreatmentHandler {
	return handler.NewTreatmentHandler(log, treatmentService)
}

func ProvideAPIRouterConfig(log logger.Logger) routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName: "api",
		Version:     "v1",
	}
}

func ProvideAPIServerConfig() server.ServerConfig {
	return server.ServerConfig{
		Port: "8080",
	}
}

func ProvideAPIRouteInitializer(
	healthHandler *handler.HealthHandler,
	spanHandler *handler.StateSpanHandler,
	treatmentHandler *handler.TreatmentHandler,
) func(*gin.Engine, routes.RouteDependencies) {
	return func(router *gin.Engine, deps routes.RouteDependencies) {
		internalRoutes.InitHealthRoutes(router, healthHandler, deps.Logger)
		internalRoutes.InitStateSpanRoutes(router, spanHandler, deps.Logger)
		internalRoutes.InitTreatmentRoutes(router, treatmentHandler, deps.Logger)
	}
}
