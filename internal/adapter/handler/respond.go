package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

const callerHeader = "X-User-ID"

// Result is the envelope for every response.
type Result struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Result{Code: "ok", Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	if code == domain.CodeInternal {
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Result{Code: string(code), Message: "internal server error"})
		return
	}
	var de *domain.Error
	msg := err.Error()
	if errors.As(err, &de) {
		msg = de.Message
	}
	writeJSON(w, statusFor(code), Result{Code: string(code), Message: msg})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeInvalidTransition:
		return http.StatusConflict
	case domain.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewError(domain.CodeValidation, "invalid json body")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.CodeValidation, "invalid "+name)
	}
	return id, nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.Header.Get(callerHeader))
	if err != nil {
		return uuid.Nil, domain.NewError(domain.CodeForbidden, "missing or invalid "+callerHeader+" header")
	}
	return id, nil
}
