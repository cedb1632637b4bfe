package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

type Handler struct {
	Log       *log.Logger
	Users     domain.UsersRepo
	Hasher    domain.PasswordHasher
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// Login godoc
// @Summary     Authenticate user
// @Description Возвращает JWT при валидных логине и пароле.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body loginRequest true "login, password"
// @Success     200 {object} loginResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     500 {object} v1.ErrResponse
// @Router      /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.login"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if req.Login == "" || req.Password == "" {
		logx.Error(h.Log, reqID, op, "empty login or password", domain.ErrBadParams)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	// Оба отказа — неизвестный логин и неверный пароль — дают байт-в-байт
	// одинаковый ответ: перечислять логины по разнице ответов нельзя.
	u, err := h.Users.UserByLogin(r.Context(), req.Login)
	if err != nil {
		logx.Error(h.Log, reqID, op, "user not found", err, "login", req.Login)
		v1.WriteError(w, r, http.StatusBadRequest, "Invalid credentials")
		return
	}
	ok, err := h.Hasher.Verify(req.Password, string(u.PassHash))
	if err != nil || !ok {
		logx.Error(h.Log, reqID, op, "password verify failed", err, "login", req.Login)
		v1.WriteError(w, r, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, _, err := h.Tokens.Issue(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue token failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "login", u.Login, "role", u.Role)
	v1.WriteJSON(w, r, http.StatusOK, loginResponse{Success: true, Token: token, User: u})
}
