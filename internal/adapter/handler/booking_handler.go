package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/services"
)

type BookingResponse struct {
	ID                  string  `json:"id"`
	UserID              string  `json:"user_id"`
	PhotographerID      string  `json:"photographer_id"`
	LocationID          string  `json:"location_id"`
	EventID             *string `json:"event_id,omitempty"`
	StartAt             string  `json:"start_at"`
	EndAt               string  `json:"end_at"`
	Status              string  `json:"status"`
	TotalPrice          int64   `json:"total_price"`
	LocationFeeOverride *int64  `json:"location_fee_override,omitempty"`
	SpecialRequests     string  `json:"special_requests,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                  b.ID.String(),
		UserID:              b.UserID.String(),
		PhotographerID:      b.PhotographerID.String(),
		LocationID:          b.LocationID.String(),
		StartAt:             b.StartAt.Format(time.RFC3339),
		EndAt:               b.EndAt.Format(time.RFC3339),
		Status:              string(b.Status),
		TotalPrice:          b.TotalPrice,
		LocationFeeOverride: b.LocationFeeOverride,
		SpecialRequests:     b.SpecialRequests,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
	}
	if b.EventID != nil {
		id := b.EventID.String()
		resp.EventID = &id
	}
	return resp
}

func toBookingList(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for i := range bs {
		out = append(out, toBookingResponse(&bs[i]))
	}
	return out
}

type BookingHandler struct {
	svc    *services.BookingService
	escrow *services.EscrowService
}

func NewBookingHandler(svc *services.BookingService, escrow *services.EscrowService) *BookingHandler {
	return &BookingHandler{svc: svc, escrow: escrow}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req services.CreateBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// The body cannot book on someone else's behalf.
	req.UserID = caller.String()

	booking, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	booking, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req services.UpdateBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	booking, err := h.svc.UpdateBooking(r.Context(), id, caller, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.ConfirmBooking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelBooking)
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	booking, split, err := h.svc.CompleteBooking(r.Context(), id, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"booking":    toBookingResponse(booking),
		"settlement": split,
	})
}

func (h *BookingHandler) EscrowBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	state, balance, err := h.escrow.State(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.escrow.Entries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"booking_id": id.String(),
		"state":      state,
		"balance":    balance,
		"entries":    toEntryList(entries),
	})
}

func (h *BookingHandler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	bookings, err := h.svc.ListByUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingList(bookings))
}

func (h *BookingHandler) ListPhotographerBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	bookings, err := h.svc.ListByPhotographer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingList(bookings))
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, bookingID, callerID uuid.UUID) (*domain.Booking, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	booking, err := fn(r.Context(), id, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingResponse(booking))
}
