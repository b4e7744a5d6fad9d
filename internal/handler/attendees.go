package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// AttendeeHandler serves the /attendees routes, including check-in.
type AttendeeHandler struct {
	attendees *service.AttendeeService
	checkIns  *service.CheckInService
	log       *slog.Logger
}

// NewAttendeeHandler constructs an AttendeeHandler.
func NewAttendeeHandler(attendees *service.AttendeeService, checkIns *service.CheckInService, log *slog.Logger) *AttendeeHandler {
	return &AttendeeHandler{attendees: attendees, checkIns: checkIns, log: log}
}

// List handles GET /attendees?eventId=
func (h *AttendeeHandler) List(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.attendees.List(r.Context(), queryParam(r, "eventId"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

// Get handles GET /attendees/{id}
func (h *AttendeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.attendees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetByBadge handles GET /attendees/badge/{badgeId}
func (h *AttendeeHandler) GetByBadge(w http.ResponseWriter, r *http.Request) {
	a, err := h.attendees.GetByBadge(r.Context(), chi.URLParam(r, "badgeId"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Register handles POST /attendees/register
func (h *AttendeeHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterAttendeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	a, err := h.attendees.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// BulkRegister handles POST /attendees
// Row failures are reported in the body; the status is 200 either way.
func (h *AttendeeHandler) BulkRegister(w http.ResponseWriter, r *http.Request) {
	var req model.BulkRegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	res, err := h.attendees.BulkRegister(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckIn handles POST /attendees/check-in
func (h *AttendeeHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	a, err := h.checkIns.CheckIn(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /attendees/{id}
func (h *AttendeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.attendees.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteResponse{Success: true})
}

// History handles GET /attendees/{id}/check-ins
func (h *AttendeeHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.attendees.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Stats handles GET /attendees/event/{id}/stats
func (h *AttendeeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.attendees.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// RecentCheckIns handles GET /attendees/event/{id}/recent-check-ins?limit=
func (h *AttendeeHandler) RecentCheckIns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := queryParam(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recent, err := h.attendees.RecentCheckIns(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if recent == nil {
		recent = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, recent)
}
