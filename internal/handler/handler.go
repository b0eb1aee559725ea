// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/service"
)

// Handler holds all HTTP handlers for the booking relay API.
type Handler struct {
	mappings *service.MappingService
	sync     *service.SyncService
}

// New constructs a Handler.
func New(mappings *service.MappingService, sync *service.SyncService) *Handler {
	return &Handler{mappings: mappings, sync: sync}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body of at most 1 MB. With optional set, an empty
// body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps service and repository errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrUnknownCalendar):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUpstream):
		log.Error("upstream failure", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error("request failed", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Extract handles POST /extract
// Infers booking fields from one calendar event. With ?calendar_id= the
// calendar's stored field mapping is applied.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := decodeJSON(w, r, &ev, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	x, err := h.mappings.Extractor(r.Context(), strings.TrimSpace(r.URL.Query().Get("calendar_id")))
	if err != nil {
		writeServiceError(w, r, err, "field mapping not found")
		return
	}
	writeJSON(w, http.StatusOK, x.Extract(&ev))
}

// RunFieldMapping handles POST /calendars/{calendarID}/field-mapping
// Samples recent events, detects and stores the calendar's field mapping.
func (h *Handler) RunFieldMapping(w http.ResponseWriter, r *http.Request) {
	var req model.RunMapperRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.runMapper(w, r, chi.URLParam(r, "calendarID"), req)
}

// fieldMapperRequest is the body of POST /field-mapping.
type fieldMapperRequest struct {
	CalendarID  string `json:"calendar_id"`
	SampleLimit int    `json:"sample_limit"`
}

// RunFieldMapper handles POST /field-mapping
// Same as RunFieldMapping with the calendar in the body.
func (h *Handler) RunFieldMapper(w http.ResponseWriter, r *http.Request) {
	var req fieldMapperRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Use POST with JSON: { calendar_id }")
		return
	}
	h.runMapper(w, r, req.CalendarID, model.RunMapperRequest{SampleLimit: req.SampleLimit})
}

func (h *Handler) runMapper(w http.ResponseWriter, r *http.Request, calendarID string, req model.RunMapperRequest) {
	run, err := h.mappings.Run(r.Context(), calendarID, req)
	if err != nil {
		writeServiceError(w, r, err, "calendar not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetFieldMapping handles GET /calendars/{calendarID}/field-mapping
// Returns the stored mapping.
func (h *Handler) GetFieldMapping(w http.ResponseWriter, r *http.Request) {
	m, err := h.mappings.Get(r.Context(), chi.URLParam(r, "calendarID"))
	if err != nil {
		writeServiceError(w, r, err, "field mapping not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// SyncCalendar handles POST /calendars/{calendarID}/sync
func (h *Handler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	res, err := h.sync.SyncCalendar(r.Context(), chi.URLParam(r, "calendarID"))
	if err != nil {
		writeServiceError(w, r, err, "calendar not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SyncAll handles POST /sync
// Syncs every configured calendar; per-calendar failures are in the results.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sync.SyncAll(r.Context()))
}

// LastSync handles GET /calendars/{calendarID}/sync
func (h *Handler) LastSync(w http.ResponseWriter, r *http.Request) {
	l, err := h.sync.LastSync(r.Context(), chi.URLParam(r, "calendarID"))
	if err != nil {
		writeServiceError(w, r, err, "no sync has run for this calendar")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListBookings handles GET /calendars/{calendarID}/bookings
// Optional query: from, to (RFC3339), limit, include_cancelled.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q, err := bookingQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := h.sync.ListBookings(r.Context(), chi.URLParam(r, "calendarID"), q)
	if err != nil {
		writeServiceError(w, r, err, "calendar not found")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func bookingQuery(r *http.Request) (service.BookingQuery, error) {
	var q service.BookingQuery
	v := r.URL.Query()
	var err error
	if s := v.Get("from"); s != "" {
		if q.From, err = time.Parse(time.RFC3339, s); err != nil {
			return q, errors.New("from must be an RFC3339 timestamp")
		}
	}
	if s := v.Get("to"); s != "" {
		if q.To, err = time.Parse(time.RFC3339, s); err != nil {
			return q, errors.New("to must be an RFC3339 timestamp")
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, errors.New("limit must be an integer")
		}
	}
	if s := v.Get("include_cancelled"); s != "" {
		if q.IncludeCancelled, err = strconv.ParseBool(s); err != nil {
			return q, errors.New("include_cancelled must be true or false")
		}
	}
	return q, nil
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
