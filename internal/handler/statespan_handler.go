package handler

import (
	"context"
	"strconv"
	"time"

	"nocturne/commons/error_handler"
	"nocturne/commons/handler"
	"nocturne/internal/domain"
	"nocturne/internal/dto"
	"nocturne/internal/logger"
	"nocturne/internal/repository"
	repositoryIface "nocturne/internal/repository/iface"
	"nocturne/internal/service"
)

type StateSpanHandler struct {
	logger      logger.Logger
	spanService service.StateSpanService
}

func NewStateSpanHandler(
	log logger.Logger,
	spanService service.StateSpanService,
) *StateSpanHandler {
	return &StateSpanHandler{
		logger:      log.With(logger.String("component", "statespan_handler")),
		spanService: spanService,
	}
}

func (h *StateSpanHandler) CreateStateSpanService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.CreateStateSpanRequest],
) (dto.StateSpanResponse, *error_handler.ErrorCollection) {
	req := ioutil.Body

	span := dto.SpanFromCreateRequest(req.Category, req.State, req.StartMills, req.EndMills, req.Source, req.OriginalID, req.Metadata)

	stored, err := h.spanService.Upsert(ctx, span)
	if err != nil {
		if repository.IsValidationError(err) {
			return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, err.Error(), nil)
		}
		h.logger.Error("failed to upsert span",
			logger.String("category", req.Category),
			logger.Error(err),
		)
		return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to store span", nil)
	}

	return dto.StateSpanFromDomain(stored), nil
}

func (h *StateSpanHandler) GetStateSpanService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetStateSpanRequest],
) (dto.StateSpanResponse, *error_handler.ErrorCollection) {
	id := ioutil.PathParams["id"]

	span, err := h.spanService.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("failed to get span",
			logger.String("span_id", id),
			logger.Error(err),
		)
		return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to get span", nil)
	}
	if span == nil {
		return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "span not found", nil)
	}

	return dto.StateSpanFromDomain(span), nil
}

func (h *StateSpanHandler) ListStateSpansService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListStateSpansRequest],
) (dto.ListStateSpansResponse, *error_handler.ErrorCollection) {
	filter, ec := buildSpanFilter(ioutil.QueryParams)
	if ec != nil {
		return dto.ListStateSpansResponse{}, ec
	}

	spans, err := h.spanService.Get(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list spans", logger.Error(err))
		return dto.ListStateSpansResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to list spans", nil)
	}

	responses := make([]dto.StateSpanResponse, len(spans))
	for i, span := range spans {
		responses[i] = dto.StateSpanFromDomain(span)
	}

	return dto.ListStateSpansResponse{
		Spans: responses,
		PaginationResponse: dto.PaginationResponse{
			Count: len(responses),
		},
	}, nil
}

func (h *StateSpanHandler) UpdateStateSpanService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.UpdateStateSpanRequest],
) (dto.StateSpanResponse, *error_handler.ErrorCollection) {
	id := ioutil.PathParams["id"]
	req := ioutil.Body

	span := dto.SpanFromCreateRequest(req.Category, req.State, req.StartMills, req.EndMills, req.Source, req.OriginalID, req.Metadata)

	updated, err := h.spanService.UpdateByID(ctx, id, span)
	if err != nil {
		if repository.IsValidationError(err) {
			return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, err.Error(), nil)
		}
		h.logger.Error("failed to update span",
			logger.String("span_id", id),
			logger.Error(err),
		)
		return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to update span", nil)
	}
	if updated == nil {
		return dto.StateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "span not found", nil)
	}

	return dto.StateSpanFromDomain(updated), nil
}

func (h *StateSpanHandler) DeleteStateSpanService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.GetStateSpanRequest],
) (dto.DeleteStateSpanResponse, *error_handler.ErrorCollection) {
	id := ioutil.PathParams["id"]

	existed, err := h.spanService.DeleteByID(ctx, id)
	if err != nil {
		h.logger.Error("failed to delete span",
			logger.String("span_id", id),
			logger.Error(err),
		)
		return dto.DeleteStateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to delete span", nil)
	}
	if !existed {
		return dto.DeleteStateSpanResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeNotFound, "span not found", nil)
	}

	return dto.DeleteStateSpanResponse{ID: id, Deleted: true}, nil
}

// GetCategoryTreatmentsService renders one category's spans as legacy flat
// records, e.g. /span-views/TEMP_BASAL
func (h *StateSpanHandler) GetCategoryTreatmentsService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.ListTreatmentsRequest],
) (dto.ListTreatmentsResponse, *error_handler.ErrorCollection) {
	category := domain.Category(ioutil.PathParams["category"])
	if !category.Valid() {
		return dto.ListTreatmentsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeValidationError, "unknown category", nil)
	}

	from, to, ec := parseWindow(ioutil.QueryParams)
	if ec != nil {
		return dto.ListTreatmentsResponse{}, ec
	}
	count, skip, ec := parsePaging(ioutil.QueryParams)
	if ec != nil {
		return dto.ListTreatmentsResponse{}, ec
	}

	treatments, err := h.spanService.GetAsTreatments(ctx, category, from, to, count, skip)
	if err != nil {
		h.logger.Error("failed to render category view",
			logger.String("category", string(category)),
			logger.Error(err),
		)
		return dto.ListTreatmentsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to render category view", nil)
	}

	return dto.ListTreatmentsResponse{
		Treatments: treatments,
		PaginationResponse: dto.PaginationResponse{
			Count: len(treatments),
		},
	}, nil
}

type BasalStatsRequest struct{}

type BasalStatsResponse struct {
	TotalDelivered float64                   `json:"totalDelivered"`
	Hourly         []service.HourlyRateStats `json:"hourly"`
}

// GetBasalStatsService computes delivered-insulin totals and the hourly rate
// distribution over basal-delivery spans in a window
func (h *StateSpanHandler) GetBasalStatsService(
	ctx context.Context,
	ioutil *handler.RequestIo[BasalStatsRequest],
) (BasalStatsResponse, *error_handler.ErrorCollection) {
	from, to, ec := parseWindow(ioutil.QueryParams)
	if ec != nil {
		return BasalStatsResponse{}, ec
	}

	category := domain.CategoryBasalDelivery
	spans, err := h.spanService.Get(ctx, repositoryIface.SpanFilter{
		Category: &category,
		From:     from,
		To:       to,
	})
	if err != nil {
		h.logger.Error("failed to fetch basal spans", logger.Error(err))
		return BasalStatsResponse{}, error_handler.NewErrorCollection().
			AddError(error_handler.CodeInternalServerError, "failed to compute basal stats", nil)
	}

	hourly := service.HourlyRateDistribution(spans, time.UTC)

	return BasalStatsResponse{
		TotalDelivered: service.SumDelivered(spans),
		Hourly:         hourly[:],
	}, nil
}

// buildSpanFilter translates query params into a repository filter
func buildSpanFilter(queryParams map[string]string) (repositoryIface.SpanFilter, *error_handler.ErrorCollection) {
	var filter repositoryIface.SpanFilter

	if raw := queryParams["category"]; raw != "" {
		category := domain.Category(raw)
		if !category.Valid() {
			return filter, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "unknown category", nil)
		}
		filter.Category = &category
	}
	if raw := queryParams["state"]; raw != "" {
		state := raw
		filter.State = &state
	}
	if raw := queryParams["source"]; raw != "" {
		source := raw
		filter.Source = &source
	}
	if raw := queryParams["active"]; raw == "true" {
		filter.ActiveOnly = true
	}

	from, to, ec := parseWindow(queryParams)
	if ec != nil {
		return filter, ec
	}
	filter.From = from
	filter.To = to

	count, skip, ec := parsePaging(queryParams)
	if ec != nil {
		return filter, ec
	}
	filter.Count = count
	filter.Skip = skip

	return filter, nil
}

func parseWindow(queryParams map[string]string) (from, to *int64, ec *error_handler.ErrorCollection) {
	if raw := queryParams["from"]; raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "from must be epoch millis", nil)
		}
		from = &parsed
	}
	if raw := queryParams["to"]; raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "to must be epoch millis", nil)
		}
		to = &parsed
	}
	return from, to, nil
}

func parsePaging(queryParams map[string]string) (count, skip int, ec *error_handler.ErrorCollection) {
	count = 100 // default page size
	if raw := queryParams["count"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "count must be a non-negative integer", nil)
		}
		count = parsed
		if count > 1000 {
			count = 1000 // max page size
		}
	}
	if raw := queryParams["skip"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, error_handler.NewErrorCollection().
				AddError(error_handler.CodeValidationError, "skip must be a non-negative integer", nil)
		}
		skip = parsed
	}
	return count, skip, nil
}
