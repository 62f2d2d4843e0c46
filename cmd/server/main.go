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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"parsid/internal/identity/commitment"
	"parsid/internal/identity/handler"
	identitymetrics "parsid/internal/identity/metrics"
	"parsid/internal/identity/mint"
	"parsid/internal/identity/service"
	"parsid/internal/identity/store"
	"parsid/internal/platform/config"
	"parsid/internal/platform/httpserver"
	"parsid/internal/platform/logger"
	"parsid/internal/platform/metrics"
	"parsid/internal/registrar/httpclient"
	"parsid/internal/session"
	"parsid/pkg/platform/httputil"
)

const gaugeRefreshInterval = 15 * time.Second

// main wires the wizard API: JWT sessions, the wizard store, the mint
// coordinator and the registrar client.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	reg := metrics.NewRegistry()
	idMetrics := identitymetrics.New(reg)

	registrarClient := httpclient.New(cfg.RegistrarURL,
		httpclient.WithTimeout(cfg.RegistrarTimeout),
		httpclient.WithLogger(log),
		httpclient.WithObserver(idMetrics),
	)
	coordinator, err := mint.New(registrarClient,
		mint.WithCommitter(commitment.New(cfg.Argon.Params(), nil)),
		mint.WithLogger(log),
		mint.WithObserver(idMetrics),
	)
	if err != nil {
		return fmt.Errorf("mint coordinator: %w", err)
	}

	sessions, err := session.NewJWTProvider(cfg.JWTSigningKey, session.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return fmt.Errorf("session provider: %w", err)
	}

	wizards := store.New(cfg.WizardCapacity, cfg.WizardTTL)
	svc, err := service.New(wizards, sessions, coordinator,
		service.WithLogger(log),
		service.WithMetrics(idMetrics),
		service.WithNetwork(cfg.Network.Descriptor()),
	)
	if err != nil {
		return fmt.Errorf("identity service: %w", err)
	}

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", metrics.Handler(reg))
	handler.New(svc, log, sessions).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting parsid", "addr", cfg.Addr, "registrar_url", cfg.RegistrarURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(gaugeRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				idMetrics.SetActiveWizards(wizards.Len())
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Wipes every password still held by an open wizard.
		wizards.Purge()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
