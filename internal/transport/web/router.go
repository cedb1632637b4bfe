package web

import (
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/EgorLis/med-vault/internal/docs"
	"github.com/EgorLis/med-vault/internal/obs"
	"github.com/EgorLis/med-vault/internal/policy"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/assignments"
	authv1 "github.com/EgorLis/med-vault/internal/transport/web/v1/auth"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/blobs"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/health"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/users"
)

func newRouter(
	hh *health.Handler,
	ah *authv1.Handler,
	uh *users.Handler,
	sh *assignments.Handler,
	bh *blobs.Handler,
	rep Repos,
	auth AuthDeps,
	logger *log.Logger,
) http.Handler {
	mux := http.NewServeMux()

	authDeps := mw.AuthDeps{Tokens: auth.Tokens, Blacklist: auth.Blacklist, Users: rep.Users}
	authed := func(h http.HandlerFunc) http.Handler {
		return mw.RequireAuth(authDeps, h)
	}
	// Ролевые решения на маршрутах — только через таблицу политики
	withAction := func(action policy.Action, h http.HandlerFunc) http.Handler {
		return mw.RequireAuth(authDeps, mw.RequireAction(action)(h))
	}

	// health
	mux.HandleFunc("GET /api/healthz", hh.Liveness)
	mux.HandleFunc("GET /api/readyz", hh.Readiness)

	// auth
	mux.HandleFunc("POST /api/auth/login", ah.Login)
	mux.Handle("POST /api/auth/register", withAction(policy.ActionManageUsers, ah.Register))
	mux.Handle("GET /api/auth/me", authed(ah.Me))
	mux.HandleFunc("DELETE /api/auth/logout", ah.Logout) // токен достаёт сам

	// users
	mux.Handle("GET /api/users", withAction(policy.ActionManageUsers, uh.List))
	mux.Handle("GET /api/users/with-assignments", withAction(policy.ActionManageUsers, uh.WithAssignments))
	mux.Handle("GET /api/users/{id}", withAction(policy.ActionManageUsers, uh.GetByID))
	mux.Handle("PUT /api/users/{id}", withAction(policy.ActionManageUsers, uh.Update))
	mux.Handle("DELETE /api/users/{id}", withAction(policy.ActionManageUsers, uh.Delete))

	// assignments
	mux.Handle("GET /api/assignments/containers", withAction(policy.ActionManageAssignments, sh.Containers))
	mux.Handle("GET /api/assignments/containers/{containerName}/folders", withAction(policy.ActionManageAssignments, sh.Folders))
	mux.Handle("POST /api/assignments/containers/{containerName}/users/{userId}", withAction(policy.ActionManageAssignments, sh.AssignContainer))
	mux.Handle("POST /api/assignments/containers/{containerName}/folders", withAction(policy.ActionManageAssignments, sh.AssignFolders))
	mux.Handle("GET /api/assignments/users/{userId}", withAction(policy.ActionManageAssignments, sh.UserAssignments))
	mux.Handle("GET /api/assignments/my-assignments", withAction(policy.ActionViewOwnAssignments, sh.MyAssignments))
	mux.Handle("DELETE /api/assignments/{assignmentId}", withAction(policy.ActionManageAssignments, sh.Revoke))

	// blobs
	mux.Handle("GET /api/blobs/audit", withAction(policy.ActionViewAudit, bh.AuditLogs))
	mux.Handle("GET /api/blobs/{containerName}/{folderName}", authed(bh.List))
	mux.Handle("GET /api/blobs/{containerName}/{folderName}/{blobName}/url", authed(bh.CapabilityURL))
	mux.Handle("POST /api/blobs/{containerName}/{folderName}",
		withAction(policy.ActionUploadFile, limitBody(64<<20, bh.Upload))) // 64MB лимит
	mux.Handle("DELETE /api/blobs/{containerName}/{folderName}/{blobName}", withAction(policy.ActionDeleteFile, bh.Delete))

	// метрики и swagger
	mux.Handle("GET /metrics", obs.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return obs.Instrument(mw.WithRequestID(mw.Logging(logger)(mux)))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
