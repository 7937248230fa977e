package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ride-analytics/internal/repository"
	"ride-analytics/internal/services"
	"ride-analytics/internal/timeseries"
	"ride-analytics/pkg/logging"
	"ride-analytics/pkg/metrics"
)

// ActivityHandler handles the activity API endpoints
type ActivityHandler struct {
	analysisService *services.AnalysisService
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(
	analysisService *services.AnalysisService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ActivityHandler {
	return &ActivityHandler{
		analysisService: analysisService,
		logger:          logger,
		metrics:         metricsCollector,
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

// SeriesResponse represents a monthly series payload
type SeriesResponse struct {
	Metric    string    `json:"metric"`
	Start     string    `json:"start"`
	Frequency int       `json:"frequency"`
	Values    []float64 `json:"values"`
}

func newSeriesResponse(s *timeseries.Series) SeriesResponse {
	return SeriesResponse{
		Metric:    s.Name,
		Start:     s.PeriodAt(0).Format("2006-01"),
		Frequency: s.Frequency,
		Values:    s.Values,
	}
}

// parsePagination reads page/limit query parameters with defaults.
func parsePagination(r *http.Request) (page, limit, offset int) {
	page = 1
	limit = 100

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	return page, limit, (page - 1) * limit
}

// GetActivities handles GET /api/activities
func (h *ActivityHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/activities").Observe(time.Since(startTime).Seconds())
	}()

	page, limit, offset := parsePagination(r)

	filter := repository.ActivityFilter{
		Limit:  limit,
		Offset: offset,
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		startDate, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		endDate, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	activities, total, err := h.analysisService.GetActivities(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_ACTIVITIES_ERROR] Failed to get activities", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/activities")
		h.sendError(w, r, "failed to retrieve activities", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/activities", "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       activities,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetMonthlyAggregates handles GET /api/activities/monthly
func (h *ActivityHandler) GetMonthlyAggregates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/activities/monthly").Observe(time.Since(startTime).Seconds())
	}()

	page, limit, offset := parsePagination(r)

	filter := repository.AggregateFilter{
		Limit:  limit,
		Offset: offset,
	}

	if s := r.URL.Query().Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1900 || year > 2200 {
			h.sendError(w, r, "invalid year", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	aggregates, total, err := h.analysisService.GetMonthlyAggregates(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_MONTHLY_ERROR] Failed to get monthly aggregates", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/activities/monthly")
		h.sendError(w, r, "failed to retrieve monthly aggregates", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/activities/monthly", "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       aggregates,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetSeries handles GET /api/activities/series
func (h *ActivityHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/activities/series").Observe(time.Since(startTime).Seconds())
	}()

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = timeseries.MetricTotalDuration
	}

	series, err := h.analysisService.BuildSeries(ctx, metric)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SERIES_ERROR] Failed to build series", logging.Fields{
			"metric": metric,
		}, err)
		h.metrics.RecordAPIError("series_error", "/api/activities/series")
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	h.metrics.RecordAPIRequest("/api/activities/series", "GET", "200")
	h.sendJSON(w, newSeriesResponse(series), http.StatusOK)
}

// GetForecast handles GET /api/activities/series/forecast
func (h *ActivityHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/activities/series/forecast").Observe(time.Since(startTime).Seconds())
	}()

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = timeseries.MetricTotalDuration
	}

	method := r.URL.Query().Get("method")
	if method == "" {
		method = services.ForecastSeasonalNaive
	}

	horizon := 12
	if s := r.URL.Query().Get("h"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 120 {
			h.sendError(w, r, "invalid horizon, expected integer between 1 and 120", http.StatusBadRequest)
			return
		}
		horizon = v
	}

	forecast, err := h.analysisService.Forecast(ctx, metric, method, horizon)
	if err != nil {
		h.logger.Error(ctx, "[API_FORECAST_ERROR] Failed to build forecast", logging.Fields{
			"metric":  metric,
			"method":  method,
			"horizon": horizon,
		}, err)
		h.metrics.RecordAPIError("forecast_error", "/api/activities/series/forecast")
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	h.metrics.RecordAPIRequest("/api/activities/series/forecast", "GET", "200")
	h.sendJSON(w, newSeriesResponse(forecast), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ActivityHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *ActivityHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ActivityHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// RegisterRoutes registers all activity API routes
func (h *ActivityHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/activities", h.GetActivities).Methods("GET")
	router.HandleFunc("/api/activities/monthly", h.GetMonthlyAggregates).Methods("GET")
	router.HandleFunc("/api/activities/series", h.GetSeries).Methods("GET")
	router.HandleFunc("/api/activities/series/forecast", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
