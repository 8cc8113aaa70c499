package handler

import (
	"context"

	"nocturne/commons/error_handler"
	"nocturne/commons/handler"
	"nocturne/internal/connector"
	"nocturne/internal/logger"
)

type SyncHandler struct {
	logger      logger.Logger
	syncService connector.SyncService
}

type SyncStatusRequest struct{}

type SyncStatusResponse struct {
	connector.SyncMetrics
}

type TriggerSyncResponse struct {
	Triggered bool `json:"triggered"`
}

func NewSyncHandler(log logger.Logger, syncService connector.SyncService) *SyncHandler {
	return &SyncHandler{
		logger:      log.With(logger.String("component", "sync_handler")),
		syncService: syncService,
	}
}

func (h *SyncHandler) SyncStatusService(
	ctx context.Context,
	ioutil *handler.RequestIo[SyncStatusRequest],
) (SyncStatusResponse, *error_handler.ErrorCollection) {
	return SyncStatusResponse{SyncMetrics: h.syncService.Metrics()}, nil
}

// TriggerSyncService forces a pull outside the schedule, bypassing leadership
func (h *SyncHandler) TriggerSyncService(
	ctx context.Context,
	ioutil *handler.RequestIo[SyncStatusRequest],
) (TriggerSyncResponse, *error_handler.ErrorCollection) {
	if err := h.syncService.SyncOnce(ctx); err != nil {
		h.logger.Error("manual sync failed", logger.Error(err))
		return TriggerSyncResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "sync failed", nil)
	}

	return TriggerSyncResponse{Triggered: true}, nil
}
