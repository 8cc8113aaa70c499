package routes

import (
	"net/http"

	"nocturne/commons/routes"
	"nocturne/internal/dto"
	"nocturne/internal/handler"
	"nocturne/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitTreatmentRoutes(
	router *gin.Engine,
	treatmentHandler *handler.TreatmentHandler,
	log logger.Logger,
) {
	// Create API group
	apiV1 := routes.CreateAPIGroup(router, "v1")

	// Initialize route dependencies
	deps := routes.RouteDependencies{
		Logger: log,
	}

	// Register merged list route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListTreatmentsRequest, dto.ListTreatmentsResponse]{
			Path:        "/treatments",
			Method:      http.MethodGet,
			ServiceFunc: treatmentHandler.ListTreatmentsService,
			RequireAuth: false,
		},
	)

	// Register create treatment route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.CreateTreatmentRequest, dto.CreateTreatmentResponse]{
			Path:        "/treatments",
			Method:      http.MethodPost,
			ServiceFunc: treatmentHandler.CreateTreatmentService,
			RequireAuth: false,
		},
	)

	// Register delete treatment route
	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.DeleteTreatmentRequest, dto.DeleteTreatmentResponse]{
			Path:        "/treatments/:id",
			Method:      http.MethodDelete,
			ServiceFunc: treatmentHandler.DeleteTreatmentService,
			RequireAuth: false,
		},
	)
}
