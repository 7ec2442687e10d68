package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aerodesk/call-intake/internal/aggregation"
	"github.com/aerodesk/call-intake/internal/analysis"
	"github.com/aerodesk/call-intake/internal/intake"
	"github.com/aerodesk/call-intake/internal/storage/sqlite"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Handler contains the API request handlers
type Handler struct {
	intakeService  *intake.Service
	analyzer       analysis.Analyzer
	aggregationJob *aggregation.Job
	airports       *sqlite.AirportStorage
	calls          *sqlite.CallStorage
	summaries      *sqlite.DailySummaryStorage
	seedAirports   []sqlite.Airport
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	intakeService *intake.Service,
	analyzer analysis.Analyzer,
	aggregationJob *aggregation.Job,
	airports *sqlite.AirportStorage,
	calls *sqlite.CallStorage,
	summaries *sqlite.DailySummaryStorage,
	seedAirports []sqlite.Airport,
	maxUploadBytes int64,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		intakeService:  intakeService,
		analyzer:       analyzer,
		aggregationJob: aggregationJob,
		airports:       airports,
		calls:          calls,
		summaries:      summaries,
		seedAirports:   seedAirports,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("api-handler"),
	}
}

// errorResponse is the uniform error envelope
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// respondJSON writes a JSON response with the given status code
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// respondError writes the uniform error envelope
func (h *Handler) respondError(w http.ResponseWriter, status int, message, detail string) {
	h.respondJSON(w, status, errorResponse{Error: message, Detail: detail})
}

// handlePipelineError maps intake pipeline errors onto the API error taxonomy
func (h *Handler) handlePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, intake.ErrAudioMissing),
		errors.Is(err, intake.ErrAudioTooSmall),
		errors.Is(err, intake.ErrEmptyTranscript):
		h.respondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, intake.ErrSeedDataMissing):
		h.logger.Error("Airport seed data is missing", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError,
			"server reference data is not initialized", "seed the airport table and retry")
	default:
		h.logger.Error("Call intake failed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

// CreateCallFromAudio handles POST /calls/audio: the full intake pipeline
// from an uploaded recording to a persisted call.
func (h *Handler) CreateCallFromAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	employeeID := r.FormValue("employee_id")
	if strings.TrimSpace(employeeID) == "" {
		h.respondError(w, http.StatusBadRequest, "employee_id is required", "")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()

	audioBytes, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}

	record, err := h.intakeService.Intake(r.Context(), intake.Request{
		Audio:      audioBytes,
		Filename:   header.Filename,
		EmployeeID: employeeID,
	})
	if err != nil {
		h.handlePipelineError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// analyzeRequest is the body of POST /calls
type analyzeRequest struct {
	Transcript string `json:"transcript"`
	FromNumber string `json:"from_number"`
}

// AnalyzeCall handles POST /calls: analyzes an already-transcribed call
// without persisting anything.
func (h *Handler) AnalyzeCall(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Transcript) == "" {
		h.respondError(w, http.StatusBadRequest, "transcript is required", "")
		return
	}
	if strings.TrimSpace(req.FromNumber) == "" {
		h.respondError(w, http.StatusBadRequest, "from_number is required", "")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Transcript)
	if err != nil {
		h.logger.Error("Transcript analysis failed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListCalls handles GET /calls
func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.respondError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = parsed
	}

	records, err := h.calls.ListRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list calls", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if records == nil {
		records = []*sqlite.CallRecord{}
	}

	h.respondJSON(w, http.StatusOK, records)
}

// GetCall handles GET /calls/{id}
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid call ID", "")
		return
	}

	record, err := h.calls.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get call", logger.Int64("id", id), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "call not found", "")
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// parseDate parses an optional YYYY-MM-DD query parameter, defaulting to
// today (UTC).
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}

// ListDailySummaries handles GET /summaries/daily
func (h *Handler) ListDailySummaries(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", "")
		return
	}

	records, err := h.summaries.ListByDate(day.Format("2006-01-02"))
	if err != nil {
		h.logger.Error("Failed to list daily summaries", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if records == nil {
		records = []*sqlite.DailySummaryRecord{}
	}

	h.respondJSON(w, http.StatusOK, records)
}

// RunDailyAggregation handles POST /summaries/daily/run: a manual trigger
// for the daily aggregation job.
func (h *Handler) RunDailyAggregation(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", "")
		return
	}

	created, err := h.aggregationJob.RunOnce(r.Context(), day)
	if err != nil {
		h.logger.Error("Manual aggregation run failed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    day.Format("2006-01-02"),
		"created": created,
	})
}

// SeedAirports handles POST /admin/seed: idempotent loading of the airport
// reference data.
func (h *Handler) SeedAirports(w http.ResponseWriter, r *http.Request) {
	inserted, err := h.airports.Seed(h.seedAirports)
	if err != nil {
		h.logger.Error("Airport seeding failed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	total, err := h.airports.Count()
	if err != nil {
		h.logger.Error("Failed to count airports", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"inserted": inserted,
		"total":    total,
	})
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
