package config

import (
	"context"
	"os"

	"nocturne/commons/routes"
	"nocturne/commons/server"
	"nocturne/internal/connector"
	coordinator "nocturne/internal/coordinator/iface"
	"nocturne/internal/handler"
	"nocturne/internal/logger"
	internalRoutes "nocturne/internal/routes"
	"nocturne/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

// Connector Providers

func ProvideUpstreamClient(log logger.Logger) connector.UpstreamClient {
	baseURL := os.Getenv("UPSTREAM_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8100"
	}
	apiToken := os.Getenv("UPSTREAM_API_TOKEN")

	return connector.NewUpstreamClient(baseURL, apiToken, log)
}

func ProvideEventFilter(log logger.Logger) (*connector.EventFilter, error) {
	// Empty expression accepts every event
	expression := os.Getenv("SYNC_EVENT_FILTER")

	filter, err := connector.NewEventFilter(expression)
	if err != nil {
		return nil, err
	}

	if expression != "" {
		log.Info("sync event filter active", logger.String("expression", expression))
	}
	return filter, nil
}

func ProvideSyncService(
	upstream connector.UpstreamClient,
	filter *connector.EventFilter,
	spanService service.StateSpanService,
	elector coordinator.LeaderElector,
	log logger.Logger,
) connector.SyncService {
	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		nodeID = "connector-" + uuid.New().String()
	}

	return connector.NewSyncService(upstream, filter, spanService, elector, connector.SyncConfig{
		NodeID:          nodeID,
		Source:          "pump-connector",
		Schedule:        "0 * * * * *", // every minute
		LookbackMinutes: 60,
	}, log)
}

// HTTP Providers

func ProvideConnectorHealthHandler(log logger.Logger) *handler.HealthHandler {
	return handler.NewHealthHandler(log, "connector")
}

func ProvideSyncHandler(
	log logger.Logger,
	syncService connector.SyncService,
) *handler.SyncHandler {
	return handler.NewSyncHandler(log, syncService)
}

func ProvideConnectorRouterConfig(log logger.Logger) routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName: "connector",
		Version:     "v1",
	}
}

func ProvideConnectorServerConfig() server.ServerConfig {
	return server.ServerConfig{
		Port: "8091",
	}
}

func ProvideConnectorRouteInitializer(
	healthHandler *handler.HealthHandler,
	syncHandler *handler.SyncHandler,
) func(*gin.Engine, routes.RouteDependencies) {
	return func(router *gin.Engine, deps routes.RouteDependencies) {
		internalRoutes.InitHealthRoutes(router, healthHandler, deps.Logger)
		internalRoutes.InitSyncRoutes(router, syncHandler, deps.Logger)
	}
}

// Lifecycle Management

func ManageSyncLifecycle(lc fx.Lifecycle, syncService connector.SyncService, srv *server.HTTPServer, log logger.Logger) {
	// The HTTP server's lifecycle hooks are automatically managed by Uber FX
	// when it's passed as a parameter here. We just need to ensure it's in the dependency graph.
	_ = srv // Explicitly reference to ensure it's invoked

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting connector sync loop")
			return syncService.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping connector sync loop")
			return syncService.Stop(ctx)
		},
	})
}
