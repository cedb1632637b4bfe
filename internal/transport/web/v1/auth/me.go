package auth

import (
	"net/http"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

type meResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

// Me godoc
// @Summary     Current user
// @Description Профиль аутентифицированного пользователя (свежий, из базы).
// @Tags        auth
// @Produce     json
// @Success     200 {object} meResponse
// @Failure     401 {object} v1.ErrResponse
// @Router      /api/auth/me [get]
// @Security    BearerAuth
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "auth.me"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		logx.Error(h.Log, reqID, op, "no user in context", domain.ErrUnauth)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	v1.WriteJSON(w, r, http.StatusOK, meResponse{Success: true, User: u})
}
