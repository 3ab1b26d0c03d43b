package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/services"
)

const dateLayout = "2006-01-02"

type AvailabilityResponse struct {
	ID             string `json:"id"`
	PhotographerID string `json:"photographer_id"`
	DayOfWeek      int    `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Status         string `json:"status"`
}

func toAvailabilityResponse(a *domain.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ID:             a.ID.String(),
		PhotographerID: a.PhotographerID.String(),
		DayOfWeek:      int(a.DayOfWeek),
		StartTime:      clock(a.StartTime),
		EndTime:        clock(a.EndTime),
		Status:         string(a.Status),
	}
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

type AvailabilityHandler struct {
	svc *services.AvailabilityService
}

func NewAvailabilityHandler(svc *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

func (h *AvailabilityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.AvailabilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, toAvailabilityResponse(a))
}

func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req services.AvailabilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toAvailabilityResponse(a))
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.svc.ListByPhotographer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]AvailabilityResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toAvailabilityResponse(&entries[i]))
	}
	writeOK(w, http.StatusOK, out)
}

// FreeSlots serves GET /photographers/{id}/slots?date=2026-01-05. The date
// is a calendar day in the business time zone.
func (h *AvailabilityHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), h.svc.Location())
	if err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "date must be YYYY-MM-DD"))
		return
	}
	slots, err := h.svc.ComputeFreeSlots(r.Context(), id, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, slots)
}
