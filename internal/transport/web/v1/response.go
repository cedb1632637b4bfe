package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
)

// Конверт ошибки единый для всего API: {"success":false,"message":...}
type ErrResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Конверт подтверждения без данных: {"success":true,"message":...}
type MsgResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", mw.RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, ErrResponse{Success: false, Message: msg})
}

func WriteMessage(w http.ResponseWriter, r *http.Request, msg string) {
	WriteJSON(w, r, http.StatusOK, MsgResponse{Success: true, Message: msg})
}

// MapDomainError решает HTTP-статус + message по бизнес-ошибке
func MapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "Method not allowed"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := MapDomainError(err)
	WriteError(w, r, status, msg)
}
