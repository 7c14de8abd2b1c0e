package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-orchestrator/internal/cards"
	"card-orchestrator/internal/platform/config"
	"card-orchestrator/internal/platform/logger"
	"card-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	fetchTimeout := config.GetEnvDuration("MEDIA_FETCH_TIMEOUT", 10*time.Second)
	timing := cards.Timing{
		ReadinessTimeout: config.GetEnvDuration("READINESS_TIMEOUT", cards.DefaultReadinessTimeout),
		SettleDelay:      config.GetEnvDuration("SETTLE_DELAY", cards.DefaultSettleDelay),
		HintTTL:          config.GetEnvDuration("PRELOAD_HINT_TTL", cards.DefaultHintTTL),
	}

	log := logger.New(logLevel, logFormat)

	catalog := cards.NewCatalog()
	if path := config.GetEnv("SEQUENCES_FILE", ""); path != "" {
		loaded, err := cards.LoadCatalog(path)
		if err != nil {
			log.Error("load sequence catalog", "path", path, "error", err)
			os.Exit(1)
		}
		catalog = loaded
		log.Info("sequence catalog loaded", "path", path, "sequences", len(catalog.Names()))
	}

	met := metrics.New()
	loader := cards.NewHTTPLoader(fetchTimeout, log)
	pre := cards.NewMediaPreloader(loader, timing, log, func(cards.MediaKind) { met.IncPreloads() })
	defer pre.Close()

	repo := cards.NewInMemoryRepository()
	hooks := cards.TrackerHooks{OnTimeout: met.IncReadinessTimeouts}
	svc := cards.NewService(repo, loader, pre, timing, hooks, log)
	h := cards.NewHandler(svc, catalog, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() { met.SetActiveSessions(repo.ActiveSessionCount()) }).ServeHTTP(w, req)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/state", h.GetState)
			r.Post("/navigate", h.Navigate)
			r.Post("/next", h.Next)
			r.Post("/previous", h.Previous)
			r.Post("/mounted", h.MarkMounted)
			r.Put("/sequence", h.ReplaceSequence)
			r.Delete("/", h.EndSession)
		})
	})

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"readiness_timeout", timing.ReadinessTimeout.String(),
		"settle_delay", timing.SettleDelay.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
