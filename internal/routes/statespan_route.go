package routes

import (
	"net/http"

	"nocturne/commons/routes"
	"nocturne/internal/dto"
	"nocturne/internal/handler"
	"nocturne/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitStateSpanRoutes(
	router *gin.Engine,
	spanHandler *handler.StateSpanHandler,
	log logger.Logger,
) {
	// Create API group
	apiV1 := routes.CreateAPIGroup(router, "v1")

	// Initialize route dependencies
	deps := routes.RouteDependencies{
		Logger: log,
	}

	// Register create/upsert span route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.CreateStateSpanRequest, dto.StateSpanResponse]{
			Path:        "/spans",
			Method:      http.MethodPost,
			ServiceFunc: spanHandler.CreateStateSpanService,
			RequireAuth: false,
		},
	)

	// Register list spans route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListStateSpansRequest, dto.ListStateSpansResponse]{
			Path:        "/spans",
			Method:      http.MethodGet,
			ServiceFunc: spanHandler.ListStateSpansService,
			RequireAuth: false,
		},
	)

	// Register get span route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetStateSpanRequest, dto.StateSpanResponse]{
			Path:        "/spans/:id",
			Method:      http.MethodGet,
			ServiceFunc: spanHandler.GetStateSpanService,
			RequireAuth: false,
		},
	)

	// Register update span route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.UpdateStateSpanRequest, dto.StateSpanResponse]{
			Path:        "/spans/:id",
			Method:      http.MethodPut,
			ServiceFunc: spanHandler.UpdateStateSpanService,
			RequireAuth: false,
		},
	)

	// Register delete span route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetStateSpanRequest, dto.DeleteStateSpanResponse]{
			Path:        "/spans/:id",
			Method:      http.MethodDelete,
			ServiceFunc: spanHandler.DeleteStateSpanService,
			RequireAuth: false,
		},
	)

	// Register per-category legacy view route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListTreatmentsRequest, dto.ListTreatmentsResponse]{
			Path:        "/span-views/:category",
			Method:      http.MethodGet,
			ServiceFunc: spanHandler.GetCategoryTreatmentsService,
			RequireAuth: false,
		},
	)

	// Register basal stats route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[handler.BasalStatsRequest, handler.BasalStatsResponse]{
			Path:        "/insulin/basal-stats",
			Method:      http.MethodGet,
			ServiceFunc: spanHandler.GetBasalStatsService,
			RequireAuth: false,
		},
	)
}
