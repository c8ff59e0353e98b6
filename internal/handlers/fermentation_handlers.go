package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fermentation-platform/internal/models"
	"fermentation-platform/internal/repository"
	"fermentation-platform/internal/services"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

// FermentationHandler handles fermentation API endpoints
type FermentationHandler struct {
	fermentationService *services.FermentationService
	sampleService       *services.SampleService
	repo                repository.FermentationRepository
	logger              *logging.StructuredLogger
	metrics             *metrics.Collector
}

// NewFermentationHandler creates a new fermentation handler
func NewFermentationHandler(
	fermentationService *services.FermentationService,
	sampleService *services.SampleService,
	repo repository.FermentationRepository,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *FermentationHandler {
	return &FermentationHandler{
		fermentationService: fermentationService,
		sampleService:       sampleService,
		repo:                repo,
		logger:              logger,
		metrics:             metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// CreateFermentationRequest is the body for POST /api/fermentations
type CreateFermentationRequest struct {
	Name      string `json:"name"`
	Vessel    string `json:"vessel"`
	StartedAt string `json:"started_at"`
}

// CreateFermentation handles POST /api/fermentations
func (h *FermentationHandler) CreateFermentation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateFermentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		h.sendError(w, r, "invalid started_at, expected RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	f, err := h.fermentationService.CreateFermentation(ctx, req.Name, req.Vessel, startedAt)
	if err != nil {
		h.logger.Error(ctx, "[API_CREATE_FERMENTATION_ERROR] Failed to create fermentation", logging.Fields{
			"name": req.Name,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/fermentations")
		h.sendError(w, r, "failed to create fermentation", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations", "POST", "201")
	h.sendJSON(w, f, http.StatusCreated)
}

// ListFermentations handles GET /api/fermentations
func (h *FermentationHandler) ListFermentations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/fermentations").Observe(time.Since(startTime).Seconds())
	}()

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	fermentations, total, err := h.fermentationService.ListFermentations(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_FERMENTATIONS_ERROR] Failed to list fermentations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/fermentations")
		h.sendError(w, r, "failed to retrieve fermentations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations", "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       fermentations,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetFermentation handles GET /api/fermentations/{id}
func (h *FermentationHandler) GetFermentation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	f, err := h.fermentationService.GetFermentation(ctx, id)
	if err != nil {
		h.handleLookupError(w, r, err, "/api/fermentations/{id}")
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations/{id}", "GET", "200")
	h.sendJSON(w, f, http.StatusOK)
}

// RecordSample handles POST /api/fermentations/{id}/samples. Accepted samples
// return 201; rejected samples return 422 with the complete multi-error
// validation result so a client sees every problem at once.
func (h *FermentationHandler) RecordSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/fermentations/{id}/samples").Observe(time.Since(startTime).Seconds())
	}()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var input services.SampleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	sample, result, err := h.sampleService.RecordSample(ctx, id, input)
	if err != nil {
		h.handleLookupError(w, r, err, "/api/fermentations/{id}/samples")
		return
	}

	if !result.Valid {
		h.metrics.RecordAPIRequest("/api/fermentations/{id}/samples", "POST", "422")
		h.sendJSON(w, result, http.StatusUnprocessableEntity)
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations/{id}/samples", "POST", "201")
	h.sendJSON(w, map[string]interface{}{
		"sample":   sample,
		"warnings": result.Warnings,
	}, http.StatusCreated)
}

// GetSamples handles GET /api/fermentations/{id}/samples
func (h *FermentationHandler) GetSamples(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/fermentations/{id}/samples").Observe(time.Since(startTime).Seconds())
	}()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	page, limit := parsePagination(r)

	filter := repository.SampleFilter{
		FermentationID: &id,
		Limit:          limit,
		Offset:         (page - 1) * limit,
	}

	if raw := r.URL.Query().Get("sample_type"); raw != "" {
		sampleType := models.SampleType(raw)
		if !sampleType.Valid() {
			h.sendError(w, r, "invalid sample_type", http.StatusBadRequest)
			return
		}
		filter.SampleType = &sampleType
	}

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		startDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if raw := r.URL.Query().Get("end_date"); raw != "" {
		endDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	samples, total, err := h.sampleService.GetSamples(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SAMPLES_ERROR] Failed to get samples", logging.Fields{
			"fermentation_id": id.String(),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/fermentations/{id}/samples")
		h.sendError(w, r, "failed to retrieve samples", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations/{id}/samples", "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       samples,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetStatus handles GET /api/fermentations/{id}/status
func (h *FermentationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	f, err := h.fermentationService.GetFermentation(ctx, id)
	if err != nil {
		h.handleLookupError(w, r, err, "/api/fermentations/{id}/status")
		return
	}

	history, err := h.fermentationService.GetStatusHistory(ctx, id, 20)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATUS_ERROR] Failed to get status history", logging.Fields{
			"fermentation_id": id.String(),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/fermentations/{id}/status")
		h.sendError(w, r, "failed to retrieve status history", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations/{id}/status", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"fermentation_id": f.ID,
		"status":          f.Status,
		"history":         history,
	}, http.StatusOK)
}

// RecomputeStatus handles POST /api/fermentations/{id}/status/recompute
func (h *FermentationHandler) RecomputeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	status, err := h.fermentationService.Reclassify(ctx, id)
	if err != nil {
		h.handleLookupError(w, r, err, "/api/fermentations/{id}/status/recompute")
		return
	}

	h.metrics.RecordAPIRequest("/api/fermentations/{id}/status/recompute", "POST", "200")
	h.sendJSON(w, map[string]interface{}{
		"fermentation_id": id,
		"status":          status,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *FermentationHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.repo.HealthCheck(ctx); err != nil {
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// parseID extracts and parses the fermentation UUID from the route
func (h *FermentationHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, r, "invalid fermentation id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// handleLookupError maps repository errors to API responses
func (h *FermentationHandler) handleLookupError(w http.ResponseWriter, r *http.Request, err error, endpoint string) {
	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		h.sendError(w, r, notFound.Error(), http.StatusNotFound)
		return
	}

	h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "internal server error", http.StatusInternalServerError)
}

// parsePagination reads page/limit query params with defaults
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if raw := r.URL.Query().Get("page"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			page = p
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit
}

// sendJSON sends a JSON response
func (h *FermentationHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *FermentationHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// RegisterRoutes registers all fermentation API routes
func (h *FermentationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/fermentations", h.CreateFermentation).Methods("POST")
	router.HandleFunc("/api/fermentations", h.ListFermentations).Methods("GET")
	router.HandleFunc("/api/fermentations/{id}", h.GetFermentation).Methods("GET")
	router.HandleFunc("/api/fermentations/{id}/samples", h.RecordSample).Methods("POST")
	router.HandleFunc("/api/fermentations/{id}/samples", h.GetSamples).Methods("GET")
	router.HandleFunc("/api/fermentations/{id}/status", h.GetStatus).Methods("GET")
	router.HandleFunc("/api/fermentations/{id}/status/recompute", h.RecomputeStatus).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/docs", SwaggerUI).Methods("GET")
}
