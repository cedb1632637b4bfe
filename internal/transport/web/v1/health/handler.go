package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type Handler struct {
	Log     *log.Logger
	DB      Pinger
	Cache   Pinger
	Storage Pinger
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Liveness godoc
// @Summary      Liveness probe
// @Description  Проверка, жив ли сервис (не зависит от БД/кэша)
// @Tags         health
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /api/healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	const op = "health.liveness"
	reqID := mw.RequestIDFromCtx(r.Context())

	logx.Info(h.Log, reqID, op, "ok")
	v1.WriteJSON(w, r, http.StatusOK, statusResponse{Success: true, Status: "ok"})
}

// Readiness godoc
// @Summary      Readiness probe
// @Description  Проверка готовности: пинг Postgres, Redis и object store
// @Tags         health
// @Produce      json
// @Success      200  {object}  statusResponse
// @Failure      503  {object}  v1.ErrResponse
// @Router       /api/readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "db ping failed", err)
		v1.WriteError(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	if err := h.Cache.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "cache ping failed", err)
		v1.WriteError(w, r, http.StatusServiceUnavailable, "Cache unavailable")
		return
	}
	if err := h.Storage.Ping(ctx); err != nil {
		logx.Error(h.Log, reqID, op, "storage ping failed", err)
		v1.WriteError(w, r, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}

	logx.Info(h.Log, reqID, op, "ready")
	v1.WriteJSON(w, r, http.StatusOK, statusResponse{Success: true, Status: "ready"})
}
