package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"parsid/internal/platform/config"
	"parsid/internal/platform/httpserver"
	"parsid/internal/platform/logger"
	"parsid/internal/platform/middleware"
	"parsid/internal/platform/redis"
	"parsid/internal/registrar"
	"parsid/internal/registrar/server"
	"parsid/internal/registrar/store"
	"parsid/pkg/platform/httputil"
)

// main runs the development registrar. Handles live in Redis when
// PARSID_REDIS_URL is set, in memory otherwise.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.LoadRegistrar()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var handles registrar.HandleStore = store.NewInMemory()
	if redisClient != nil {
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		handles = store.NewRedis(redisClient.Client)
		log.Info("using redis handle store")
	}

	ledger, err := server.NewLedger(handles, server.WithLogger(log))
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Get("/healthz", healthz(redisClient, log))
	server.NewHandler(ledger, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting dev registrar", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func healthz(client *redis.Client, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client != nil {
			if err := client.Health(r.Context()); err != nil {
				log.WarnContext(r.Context(), "redis health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
