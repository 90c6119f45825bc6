// Command server runs the auth HTTP API.
//
// @title       Go Auth Service API
// @version     1.0.0
// @description User registration and login with a uniform response envelope.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-auth-service/internal/config"
	httpapi "github.com/tbourn/go-auth-service/internal/http"
	"github.com/tbourn/go-auth-service/internal/identity"
	"github.com/tbourn/go-auth-service/internal/observability"
	"github.com/tbourn/go-auth-service/internal/repo"
	"github.com/tbourn/go-auth-service/internal/services"
	"github.com/tbourn/go-auth-service/internal/sysutil"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.ConfigureLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run owns every resource of the process. It returns instead of exiting so
// deferred cleanup (backend close, trace flush) always happens.
func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, cfg.APIVersion)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Error().Err(err).Msg("otel shutdown")
		}
	}()

	backend, closeBackend, err := newBackend(cfg)
	if err != nil {
		return fmt.Errorf("identity backend %q: %w", cfg.Identity.Backend, err)
	}
	defer closeBackend()

	r := gin.New()
	httpapi.RegisterRoutes(r, backend, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("base_path", cfg.APIBasePath).
		Str("backend", cfg.Identity.Backend).
		Bool("swagger", cfg.SwaggerEnabled).
		Msg("server listening")
	return serve(ctx, srv)
}

// serve runs srv until it fails or ctx is done, then shuts it down
// gracefully. A listen failure is returned, not fatal.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newBackend builds the configured identity backend and its cleanup func.
func newBackend(cfg config.Config) (services.AuthRepository, func(), error) {
	ic := cfg.Identity
	switch ic.Backend {
	case config.BackendLocal:
		opts := []repo.OpenOption{repo.WithSilentLogger()}
		if cfg.OTEL.Enabled {
			opts = append(opts, repo.WithTracing())
		}
		db, err := repo.OpenSQLite(ic.DBPath, opts...)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() { _ = sqlDB.Close() }
		if err := repo.AutoMigrate(db); err != nil {
			closeDB()
			return nil, nil, err
		}
		store, err := identity.NewLocalStore(db, ic.JWTSecret, ic.AccessTokenTTL)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		return store, closeDB, nil
	default:
		return identity.NewSupabaseClient(ic.SupabaseURL, ic.SupabaseAnonKey, ic.UpstreamTimeout), func() {}, nil
	}
}
