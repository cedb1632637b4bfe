package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EgorLis/med-vault/internal/access"
	"github.com/EgorLis/med-vault/internal/audit"
	"github.com/EgorLis/med-vault/internal/auth/blacklist"
	"github.com/EgorLis/med-vault/internal/auth/password"
	"github.com/EgorLis/med-vault/internal/auth/token"
	"github.com/EgorLis/med-vault/internal/capability"
	"github.com/EgorLis/med-vault/internal/config"
	"github.com/EgorLis/med-vault/internal/domain"
	redisx "github.com/EgorLis/med-vault/internal/infra/cache/redis"
	"github.com/EgorLis/med-vault/internal/infra/database/postgres"
	s3storage "github.com/EgorLis/med-vault/internal/infra/storage/s3"
	"github.com/EgorLis/med-vault/internal/obs"
	"github.com/EgorLis/med-vault/internal/transport/web"
)

const auditQueueSize = 512

type App struct {
	config   *config.Config
	server   *web.Server
	log      *log.Logger
	cache    domain.Cache
	repo     *postgres.PGRepo
	recorder *audit.Recorder
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	s3Log := log.New(base.Writer(), base.Prefix()+"[s3] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
	auditLog := log.New(base.Writer(), base.Prefix()+"[audit] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	obs.Init()

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Println("init S3 storage")
	s3cfg := s3storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKey:       cfg.S3AccessKey,
		SecretKey:       cfg.S3SecretKey,
		UseSSL:          cfg.S3UseSSL,
		PathStyle:       cfg.S3PathStyle,
		ContainerPrefix: cfg.ContainerPrefix,
		FolderPrefix:    cfg.FolderPrefix,
	}
	s3, err := s3storage.New(ctx, s3cfg, s3Log)
	if err != nil {
		return nil, fmt.Errorf("failed init s3: %w", err)
	}

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	// Auth primitives
	hasher := password.NewDefault()
	tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthTokenTTL)
	bl := blacklist.NewStore(rc)

	// Bootstrap-админ — до старта сервера, чтобы в систему всегда можно было войти
	if err := bootstrapAdmin(ctx, base, pgRepo, hasher, cfg); err != nil {
		return nil, fmt.Errorf("failed bootstrap admin: %w", err)
	}

	gate := access.NewGate(pgRepo)
	caps := capability.NewIssuer(s3)
	recorder := audit.NewRecorder(auditLog, pgRepo, auditQueueSize)

	base.Println("init Server")
	rep := web.Repos{Users: pgRepo, Assignments: pgRepo, Audit: pgRepo}
	auth := web.AuthDeps{Hasher: hasher, Tokens: tm, Blacklist: bl}
	server := web.New(serverLog, cfg, rep, auth, s3, rc, gate, caps, recorder)
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:   cfg,
		server:   server,
		log:      base,
		cache:    rc,
		repo:     pgRepo,
		recorder: recorder,
	}, nil
}

// bootstrapAdmin создаёт администратора из конфига, если его ещё нет.
// Хеш пароля считается в рантайме, поэтому сидировать его миграцией нельзя.
func bootstrapAdmin(ctx context.Context, logger *log.Logger, users domain.UsersRepo, hasher domain.PasswordHasher, cfg *config.Config) error {
	if cfg.AdminLogin == "" || cfg.AdminPassword == "" {
		logger.Println("admin bootstrap skipped: ADMIN_LOGIN/ADMIN_PASSWORD not set")
		return nil
	}
	if _, err := users.UserByLogin(ctx, cfg.AdminLogin); err == nil {
		return nil // уже есть
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hashStr, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	u, err := users.CreateUser(ctx, "Administrator", cfg.AdminLogin, []byte(hashStr), domain.RoleAdmin)
	if err != nil {
		return err
	}
	logger.Printf("admin user %q created (id=%s)", u.Login, u.ID)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.recorder.Close(stopCtx)
	a.repo.Close()
	a.cache.Close()

	return nil
}
