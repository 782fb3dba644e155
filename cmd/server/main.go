// Cloud Smart Notes server entry point. Wires the encrypted note store,
// the enrichment service, the controller, and both the HTML and JSON
// surfaces behind one mux.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/kuitang/cloudnotes/internal/api"
	"github.com/kuitang/cloudnotes/internal/config"
	"github.com/kuitang/cloudnotes/internal/enrich"
	"github.com/kuitang/cloudnotes/internal/notes"
	"github.com/kuitang/cloudnotes/internal/obs"
	"github.com/kuitang/cloudnotes/internal/prefs"
	"github.com/kuitang/cloudnotes/internal/ratelimit"
	"github.com/kuitang/cloudnotes/internal/store"
	"github.com/kuitang/cloudnotes/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	obs.Init()
	log := obs.Pkg("main")

	noAI, addr := config.ParseFlags()
	cfg := config.MustLoadConfig(noAI, addr)
	cfg.PrintStartupSummary()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Encrypted note store
	st, err := store.Open(filepath.Join(cfg.DataDir, "notes.db"), cfg.MasterKey)
	if err != nil {
		return fmt.Errorf("open note store: %w", err)
	}
	defer st.Close()

	// Enrichment: real OpenAI service or the deterministic mock
	var enricher enrich.Enricher
	if cfg.NoAI {
		enricher = enrich.NewMock()
	} else {
		enricher = enrich.NewService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}

	pr := prefs.NewService(afero.NewOsFs(), cfg.DataDir)

	controller := notes.NewController(st, enricher, pr, cfg.DefaultLang)
	if err := controller.Start(); err != nil {
		// The controller stays usable offline; the UI shows the indicator.
		log.Error("starting without live note feed", "error", err)
	}
	defer controller.Stop()

	renderer, err := web.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	mux := http.NewServeMux()
	web.NewWebHandler(renderer, controller).RegisterRoutes(mux)
	api.NewHandler(controller).RegisterRoutes(mux)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	var handler http.Handler = mux
	handler = ratelimit.Middleware(limiter, handler)
	handler = obs.AccessLogMiddleware("http", handler)
	handler = obs.RequestContextMiddleware(handler)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}
