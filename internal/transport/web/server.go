package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/med-vault/internal/access"
	"github.com/EgorLis/med-vault/internal/audit"
	"github.com/EgorLis/med-vault/internal/capability"
	"github.com/EgorLis/med-vault/internal/config"
	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/assignments"
	authv1 "github.com/EgorLis/med-vault/internal/transport/web/v1/auth"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/blobs"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/health"
	"github.com/EgorLis/med-vault/internal/transport/web/v1/users"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

func New(
	logger *log.Logger,
	cfg *config.Config,
	rep Repos,
	auth AuthDeps,
	storage domain.BlobStorage,
	cache domain.Cache,
	gate *access.Gate,
	caps *capability.Issuer,
	recorder *audit.Recorder,
) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	authLog := log.New(logger.Writer(), logger.Prefix()+"[auth] ", logger.Flags())
	usersLog := log.New(logger.Writer(), logger.Prefix()+"[users] ", logger.Flags())
	assignLog := log.New(logger.Writer(), logger.Prefix()+"[assignments] ", logger.Flags())
	blobsLog := log.New(logger.Writer(), logger.Prefix()+"[blobs] ", logger.Flags())

	healthHandler := &health.Handler{Log: healthLog, DB: rep.Users, Cache: cache, Storage: storage}
	authHandler := &authv1.Handler{
		Log:       authLog,
		Users:     rep.Users,
		Hasher:    auth.Hasher,
		Tokens:    auth.Tokens,
		Blacklist: auth.Blacklist,
	}
	usersHandler := &users.Handler{
		Log:         usersLog,
		Users:       rep.Users,
		Assignments: rep.Assignments,
		Hasher:      auth.Hasher,
	}
	assignHandler := &assignments.Handler{
		Log:         assignLog,
		Users:       rep.Users,
		Assignments: rep.Assignments,
		Storage:     storage,
	}
	blobsHandler := &blobs.Handler{
		Log:     blobsLog,
		Gate:    gate,
		Storage: storage,
		Caps:    caps,
		Audit:   recorder,
	}

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           newRouter(healthHandler, authHandler, usersHandler, assignHandler, blobsHandler, rep, auth, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second, // загрузки могут идти долго
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

func (ws *Server) Run() {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ws.log.Fatalf("error: %v", err)
	}
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}
