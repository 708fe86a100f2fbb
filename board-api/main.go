package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventdeck/eventdeck-go/api"
	"github.com/eventdeck/eventdeck-go/internal/platform/auditlog"
	"github.com/eventdeck/eventdeck-go/internal/platform/auth"
	"github.com/eventdeck/eventdeck-go/internal/platform/env"
	"github.com/eventdeck/eventdeck-go/internal/platform/httpserver"
	"github.com/eventdeck/eventdeck-go/internal/platform/objectstore"
	"github.com/eventdeck/eventdeck-go/internal/platform/openapi"
	"github.com/eventdeck/eventdeck-go/internal/repo/backend"
	"github.com/eventdeck/eventdeck-go/internal/service/cards"
	"github.com/eventdeck/eventdeck-go/internal/service/layouts"
)

const serviceName = "board-api"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverCfg, err := httpserver.ConfigFromEnv(serviceName, "BOARD_API", ":8080")
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	autoMigrate, err := env.Bool("BOARD_API_AUTO_MIGRATE", true)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	b, err := backend.Open(ctx)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	store := b.Store
	defer func() { _ = store.Close() }()
	logger.Info("store opened", "driver", b.Driver)

	if autoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := store.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("migrate failed", "error", err)
			os.Exit(1)
		}
	}

	readiness := []httpserver.ReadinessCheck{{
		Name:  b.Driver,
		Check: httpserver.WithTimeout(750*time.Millisecond, store.Ping),
	}}

	boardAPI := newBoardAPI(logger, cards.New(store), layouts.New(store))

	// audit_events only exists in the Postgres schema.
	var auditWriter *auditlog.Writer
	if b.IsPostgres() {
		auditWriter = auditlog.NewWriter(b.DB, serviceName)
		boardAPI.audit = auditWriter
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	if storeCfg.Enabled() {
		media, err := objectstore.NewMedia(storeCfg)
		if err != nil {
			logger.Error("object store client init failed", "error", err)
			os.Exit(2)
		}
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = media.EnsureBucket(startupCtx)
		cancel()
		if err != nil {
			logger.Error("object store unavailable", "error", err)
			os.Exit(1)
		}
		boardAPI.media = media
		readiness = append(readiness, httpserver.ReadinessCheck{
			Name:  "minio",
			Check: httpserver.WithTimeout(750*time.Millisecond, media.CheckBucket),
		})
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}
	authenticator, err := auth.New(ctx, authCfg)
	if err != nil {
		logger.Error("auth init failed", "error", err)
		os.Exit(1)
	}

	doc, err := openapi.Load(ctx, api.OpenAPI)
	if err != nil {
		logger.Error("openapi document invalid", "error", err)
		os.Exit(2)
	}
	validator, err := openapi.NewValidator(doc, logger)
	if err != nil {
		logger.Error("openapi validator init failed", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc("GET /readyz", httpserver.Readyz(serviceName, readiness...))
	boardAPI.register(mux)

	middleware := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.MethodRoleAuthorizer(),
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}
	if auditWriter != nil {
		middleware.Audit = func(ctx context.Context, event auth.DenyEvent) error {
			auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return auditWriter.AuthDeny(auditCtx, event)
		}
	}
	handler := middleware.Wrap(validator.Wrap(mux))

	if err := httpserver.Run(ctx, logger, serverCfg, httpserver.Wrap(logger, handler)); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
