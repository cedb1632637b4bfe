package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

type registerRequest struct {
	Name     string      `json:"name"`
	Login    string      `json:"login"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type registerResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

// Register godoc
// @Summary     Register new user
// @Description Создание учётной записи (только админ). Роль admin назначить нельзя.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body registerRequest true "name, login, password, role"
// @Success     201 {object} registerResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     401 {object} v1.ErrResponse
// @Failure     403 {object} v1.ErrResponse
// @Router      /api/auth/register [post]
// @Security    BearerAuth
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "auth.register"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if !req.Role.Assignable() {
		logx.Error(h.Log, reqID, op, "invalid role", domain.ErrBadParams, "role", req.Role)
		v1.WriteError(w, r, http.StatusBadRequest, "Invalid role")
		return
	}
	if req.Name == "" || !domain.ValidLogin(req.Login) || !domain.ValidPassword(req.Password) {
		logx.Error(h.Log, reqID, op, "validation failed", domain.ErrBadParams, "login", req.Login)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	hashStr, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logx.Error(h.Log, reqID, op, "hash failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	u, err := h.Users.CreateUser(r.Context(), req.Name, req.Login, []byte(hashStr), req.Role)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logx.Error(h.Log, reqID, op, "login taken", err, "login", req.Login)
			v1.WriteError(w, r, http.StatusBadRequest, "Username already exists")
			return
		}
		logx.Error(h.Log, reqID, op, "create user failed", err, "login", req.Login)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "login", u.Login, "role", u.Role)
	v1.WriteJSON(w, r, http.StatusCreated, registerResponse{Success: true, User: u})
}
