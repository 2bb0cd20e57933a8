package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/chart"
	"agriwater-platform/internal/models"
	"agriwater-platform/internal/query"
	"agriwater-platform/internal/repository"
	"agriwater-platform/internal/services"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// QueryHandler handles the query API endpoints
type QueryHandler struct {
	queryService *services.QueryService
	repo         repository.DataRepository
	catalog      *catalog.Catalog
	logger       *logging.StructuredLogger
	metrics      *metrics.Collector
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(
	queryService *services.QueryService,
	repo repository.DataRepository,
	cat *catalog.Catalog,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		repo:         repo,
		catalog:      cat,
		logger:       logger,
		metrics:      metricsCollector,
	}
}

// QueryRequest is the POST body for /api/query and /api/resolve. Either a
// free-text question or a pre-built intent; question wins when both are
// set.
type QueryRequest struct {
	Question string         `json:"question,omitempty"`
	Intent   *models.Intent `json:"intent,omitempty"`
}

// QueryResponse wraps a pipeline result with its rendered chart spec.
type QueryResponse struct {
	Result *models.QueryResult    `json:"result"`
	Vega   map[string]interface{} `json:"vega,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message"`
	Valid   []string `json:"valid_locations,omitempty"`
	Code    int      `json:"code"`
}

// RunQuery handles POST /api/query
func (h *QueryHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/query").Observe(time.Since(startTime).Seconds())
	}()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	var result *models.QueryResult
	var err error
	if req.Question != "" {
		result, err = h.queryService.Ask(ctx, req.Question)
	} else {
		result, err = h.queryService.Run(ctx, *req.Intent)
	}
	if err != nil {
		h.sendQueryError(w, r, "/api/query", err)
		return
	}

	resp := QueryResponse{Result: result}
	if !result.Empty && result.Layout != nil {
		resp.Vega = chart.VegaSpec(result.Query, result.Series, *result.Layout)
	}

	h.metrics.RecordAPIRequest("/api/query", "POST", "200")
	h.sendJSON(w, resp, http.StatusOK)
}

// ResolveQuery handles POST /api/resolve
func (h *QueryHandler) ResolveQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/resolve").Observe(time.Since(startTime).Seconds())
	}()

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Intent == nil {
		h.sendError(w, r, "resolve requires an intent", http.StatusBadRequest)
		return
	}

	resolved, err := h.queryService.Resolve(ctx, *req.Intent)
	if err != nil {
		h.sendQueryError(w, r, "/api/resolve", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/resolve", "POST", "200")
	h.sendJSON(w, resolved, http.StatusOK)
}

// DatasetInfo describes one dataset's coverage for GET /api/datasets.
type DatasetInfo struct {
	Dataset     models.Dataset     `json:"dataset"`
	Granularity models.Granularity `json:"granularity"`
	MinYear     int                `json:"min_year"`
	MaxYear     int                `json:"max_year"`
	Variables   []string           `json:"variables"`
	Locations   []string           `json:"locations"`
}

// ListDatasets handles GET /api/datasets
func (h *QueryHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	var out []DatasetInfo
	for _, ds := range []models.Dataset{models.DatasetStationWeather, models.DatasetFieldAgriculture} {
		cov := h.catalog.Coverage[ds]
		var families []string
		for family := range cov.Families {
			families = append(families, family)
		}
		out = append(out, DatasetInfo{
			Dataset:     ds,
			Granularity: cov.Granularity,
			MinYear:     cov.MinYear,
			MaxYear:     cov.MaxYear,
			Variables:   sortedStrings(families),
			Locations:   h.catalog.ValidLocations(ds),
		})
	}

	h.metrics.RecordAPIRequest("/api/datasets", "GET", "200")
	h.sendJSON(w, out, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *QueryHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.repo.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK] Database unreachable", logging.Fields{}, err)
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

func (h *QueryHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*QueryRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	if req.Question == "" && req.Intent == nil {
		h.sendError(w, r, "request needs a question or an intent", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// sendQueryError maps pipeline failures to HTTP statuses: typed resolution
// failures are client errors, transient data failures are 503, anything
// else is 500.
func (h *QueryHandler) sendQueryError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var resErr query.ResolutionError
	if errors.As(err, &resErr) {
		status := http.StatusBadRequest
		resp := ErrorResponse{
			Error:   http.StatusText(status),
			Kind:    string(resErr.Kind()),
			Message: resErr.Error(),
			Code:    status,
		}
		var notFound *query.LocationNotFoundError
		if errors.As(err, &notFound) {
			status = http.StatusNotFound
			resp.Error = http.StatusText(status)
			resp.Code = status
			resp.Valid = notFound.Valid
		}
		h.metrics.RecordAPIError(string(resErr.Kind()), endpoint)
		h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(status))
		h.sendJSON(w, resp, status)
		return
	}

	var unavailable *repository.DataUnavailableError
	if errors.As(err, &unavailable) {
		h.metrics.RecordAPIError("data_unavailable", endpoint)
		h.sendError(w, r, "backing data store unavailable; retry later", http.StatusServiceUnavailable)
		return
	}

	h.logger.Error(r.Context(), "[API_QUERY_ERROR] Query failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "query processing failed", http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *QueryHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *QueryHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// RegisterRoutes registers all query API routes
func (h *QueryHandler) RegisterRoutes(router *mux.Router) {
	router.Use(h.requestIDMiddleware)
	router.HandleFunc("/api/query", h.RunQuery).Methods("POST")
	router.HandleFunc("/api/resolve", h.ResolveQuery).Methods("POST")
	router.HandleFunc("/api/datasets", h.ListDatasets).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

// requestIDMiddleware tags every request with an identifier that flows
// through context into log entries.
func (h *QueryHandler) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sortedStrings(in []string) []string {
	sort.Strings(in)
	return in
}
