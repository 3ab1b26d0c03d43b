package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/services"
)

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type transferRequest struct {
	ToUserID string `json:"to_user_id"`
	Amount   int64  `json:"amount"`
}

type WalletHandler struct {
	svc *services.WalletService
}

func NewWalletHandler(svc *services.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.svc.Balance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": id.String(), "balance": balance})
}

func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.svc.TopUp(r.Context(), caller, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": caller.String(), "balance": balance})
}

func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	to, err := uuid.Parse(req.ToUserID)
	if err != nil {
		writeError(w, domain.NewError(domain.CodeValidation, "invalid to_user_id"))
		return
	}
	ok, err := h.svc.Transfer(r.Context(), caller, to, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, domain.ErrInsufficientFunds)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"from": caller.String(), "to": to.String(), "amount": req.Amount})
}

func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.History(r.Context(), caller, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, toEntryList(entries))
}

type LedgerEntryResponse struct {
	ID         string  `json:"id"`
	BookingID  *string `json:"booking_id,omitempty"`
	FromUserID *string `json:"from_user_id,omitempty"`
	ToUserID   *string `json:"to_user_id,omitempty"`
	Amount     int64   `json:"amount"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Note       string  `json:"note,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toEntryList(entries []domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:         e.ID.String(),
			BookingID:  idString(e.BookingID),
			FromUserID: idString(e.FromUserID),
			ToUserID:   idString(e.ToUserID),
			Amount:     e.Amount,
			Type:       string(e.Type),
			Status:     string(e.Status),
			Note:       e.Note,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
