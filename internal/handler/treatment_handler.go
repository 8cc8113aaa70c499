package handler

import (
	"context"

	"nocturne/commons/error_handler"
	"nocturne/commons/handler"
	"nocturne/internal/domain"
	"nocturne/internal/dto"
	"nocturne/internal/logger"
	"nocturne/internal/repository"
	repositoryIface "nocturne/internal/repository/iface"
	"nocturne/internal/service"
)

type TreatmentHandler struct {
	logger           logger.Logger
	treatmentService service.TreatmentService
}

func NewTreatmentHandler(
	log logger.Logger,
	treatmentService service.TreatmentService,
) *TreatmentHandler {
	return &TreatmentHandler{
		logger:           log.With(logger.String("component", "treatment_handler")),
		treatmentService: treatmentService,
	}
}

// ListTreatmentsService serves the merged flat view: native records and
// span-derived synthetic records in one mills-descending page
func (h *TreatmentHandler) ListTreatmentsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListTreatmentsRequest],
) (dto.ListTreatmentsResponse, *error_handler.ErrorCollection) {
	var filter repositoryIface.TreatmentFilter

	if raw := ioutil.QueryParams["eventType"]; raw != "" {
		eventType := raw
		filter.EventType = &eventType
	}

	from, to, ec := parseWindow(ioutil.QueryParams)
	if ec != nil {
		return dto.ListTreatmentsResponse{}, ec
	}
	filter.From = from
	filter.To = to

	count, skip, ec := parsePaging(ioutil.QueryParams)
	if ec != nil {
		return dto.ListTreatmentsResponse{}, ec
	}
	filter.Count = count
	filter.Skip = skip

	treatments, err := h.treatmentService.GetTreatments(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list treatments", logger.Error(err))
		return dto.ListTreatmentsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to list treatments", nil)
	}

	return dto.ListTreatmentsResponse{
		Treatments: treatments,
		PaginationResponse: dto.PaginationResponse{
			Count: len(treatments),
		},
	}, nil
}

func (h *TreatmentHandler) CreateTreatmentService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.CreateTreatmentRequest],
) (dto.CreateTreatmentResponse, *error_handler.ErrorCollection) {
	req := ioutil.Body

	treatment := &domain.Treatment{
		EventType: req.EventType,
		Mills:     req.Mills,
		Duration:  req.Duration,
		Rate:      req.Rate,
		Absolute:  req.Absolute,
		Reason:    req.Reason,
		Notes:     req.Notes,
		EnteredBy: req.EnteredBy,
		Source:    req.Source,
	}

	stored, err := h.treatmentService.CreateTreatment(ctx, treatment)
	if err != nil {
		if repository.IsValidationError(err) {
			return dto.CreateTreatmentResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, err.Error(), nil)
		}
		h.logger.Error("failed to create treatment",
			logger.String("event_type", req.EventType),
			logger.Error(err),
		)
		return dto.CreateTreatmentResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to create treatment", nil)
	}

	return dto.CreateTreatmentResponse{Treatment: stored}, nil
}

func (h *TreatmentHandler) DeleteTreatmentService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.DeleteTreatmentRequest],
) (dto.DeleteTreatmentResponse, *error_handler.ErrorCollection) {
	id := ioutil.PathParams["id"]

	existed, err := h.treatmentService.DeleteTreatment(ctx, id)
	if err != nil {
		h.logger.Error("failed to delete treatment",
			logger.String("treatment_id", id),
			logger.Error(err),
		)
		return dto.DeleteTreatmentResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to delete treatment", nil)
	}
	if !existed {
		return dto.DeleteTreatmentResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "treatment not found", nil)
	}

	return dto.DeleteTreatmentResponse{ID: id, Deleted: true}, nil
}
