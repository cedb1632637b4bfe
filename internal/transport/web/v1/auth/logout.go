package auth

import (
	"net/http"
	"strings"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

// Logout godoc
// @Summary     Logout (revoke token)
// @Description Завершает сессию: помечает токен как отозванный до истечения exp.
// @Tags        auth
// @Produce     json
// @Success     200 {object} v1.MsgResponse
// @Failure     401 {object} v1.ErrResponse
// @Router      /api/auth/logout [delete]
// @Security    BearerAuth
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "auth.logout"
	reqID := mw.RequestIDFromCtx(r.Context())

	raw := tokenFromRequest(r)
	if raw == "" {
		logx.Error(h.Log, reqID, op, "missing token", domain.ErrUnauth)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	claims, err := h.Tokens.Parse(r.Context(), raw)
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse token failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	if err := h.Blacklist.Revoke(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
		logx.Error(h.Log, reqID, op, "revoke failed", err, "jti", claims.JTI)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "jti", claims.JTI)
	v1.WriteMessage(w, r, "Logged out")
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.Header.Get("x-auth-token")
}
