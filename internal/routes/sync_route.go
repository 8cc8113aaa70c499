package routes

import (
	"net/http"

	"nocturne/commons/routes"
	"nocturne/internal/handler"
	"nocturne/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitSyncRoutes(
	router *gin.Engine,
	syncHandler *handler.SyncHandler,
	log logger.Logger,
) {
	// Create API group
	apiV1 := routes.CreateAPIGroup(router, "v1")

	// Initialize route dependencies
	deps := routes.RouteDependencies{
		Logger: log,
	}

	// Register sync status route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[handler.SyncStatusRequest, handler.SyncStatusResponse]{
			Path:        "/sync/status",
			Method:      http.MethodGet,
			ServiceFunc: syncHandler.SyncStatusService,
			RequireAuth: false,
		},
	)

	// Register manual sync trigger route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[handler.SyncStatusRequest, handler.TriggerSyncResponse]{
			Path:        "/sync/run",
			Method:      http.MethodPost,
			ServiceFunc: syncHandler.TriggerSyncService,
			RequireAuth: false,
		},
	)
}
