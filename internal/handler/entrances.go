package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// EntranceHandler serves the /entrances routes.
type EntranceHandler struct {
	svc *service.EntranceService
	log *slog.Logger
}

// NewEntranceHandler constructs an EntranceHandler.
func NewEntranceHandler(svc *service.EntranceService, log *slog.Logger) *EntranceHandler {
	return &EntranceHandler{svc: svc, log: log}
}

// List handles GET /entrances?eventId=
func (h *EntranceHandler) List(w http.ResponseWriter, r *http.Request) {
	entrances, err := h.svc.List(r.Context(), queryParam(r, "eventId"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entrances)
}

// Get handles GET /entrances/{id}
func (h *EntranceHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Create handles POST /entrances
func (h *EntranceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEntranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	e, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// Update handles PUT /entrances/{id}
func (h *EntranceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEntranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	e, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete handles DELETE /entrances/{id}
func (h *EntranceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteResponse{Success: true})
}

// IncrementScan handles POST /entrances/{id}/increment-scan
func (h *EntranceHandler) IncrementScan(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.RecordScan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Stats handles GET /entrances/event/{id}/stats
func (h *EntranceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.StatsForEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
