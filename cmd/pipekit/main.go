package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	pkhttp "github.com/Strob0t/PipeKit/internal/adapter/http"
	pknats "github.com/Strob0t/PipeKit/internal/adapter/nats"
	pkotel "github.com/Strob0t/PipeKit/internal/adapter/otel"
	"github.com/Strob0t/PipeKit/internal/adapter/ristretto"
	"github.com/Strob0t/PipeKit/internal/adapter/ws"
	"github.com/Strob0t/PipeKit/internal/config"
	"github.com/Strob0t/PipeKit/internal/domain/agent"
	"github.com/Strob0t/PipeKit/internal/domain/pipeline"
	"github.com/Strob0t/PipeKit/internal/logger"
	"github.com/Strob0t/PipeKit/internal/port/broadcast"
	"github.com/Strob0t/PipeKit/internal/service"

	// Agent backend factories register themselves.
	_ "github.com/Strob0t/PipeKit/internal/adapter/claudecli"
	_ "github.com/Strob0t/PipeKit/internal/adapter/codexcli"
	_ "github.com/Strob0t/PipeKit/internal/adapter/geminicli"
	_ "github.com/Strob0t/PipeKit/internal/adapter/mockagent"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"config_dir", cfg.Paths.ConfigDir,
	)

	ctx := context.Background()

	// --- Observability ---
	shutdownTracer := pkotel.InitTracer(cfg.Logging.Service)
	defer func() { _ = shutdownTracer(ctx) }()

	metrics, err := pkotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	probeCache, err := ristretto.New(cfg.Cache.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer probeCache.Close()

	hub := ws.NewHub()
	events := broadcast.Multi{hub}

	if cfg.NATS.URL != "" {
		queue, err := pknats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		events = append(events, queue)
	}

	// --- Definitions ---
	agents, err := agent.LoadFromDirectory(filepath.Join(cfg.Paths.ConfigDir, "agents"))
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	pipelines, err := pipeline.LoadFromDirectory(filepath.Join(cfg.Paths.ConfigDir, "pipelines"))
	if err != nil {
		return fmt.Errorf("load pipelines: %w", err)
	}
	slog.Info("definitions loaded", "agents", len(agents), "pipelines", len(pipelines))

	// --- Services ---
	agentSvc, err := service.NewAgentService(agents, cfg.Engine.FallbackAgent, probeCache, cfg.Engine.ProbeTTL)
	if err != nil {
		return fmt.Errorf("agent service: %w", err)
	}
	agentSvc.SetMetrics(metrics)

	engine := service.NewEngine(agentSvc, events, cfg.Paths.WorkDir)
	engine.SetMetrics(metrics)

	stateSvc := service.NewStateService(engine, events)
	stateSvc.SetMetrics(metrics)

	pipelineSvc, err := service.NewPipelineService(pipelines)
	if err != nil {
		return fmt.Errorf("pipeline service: %w", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	dispatcher := service.NewDispatcher(pipelineSvc, stateSvc, events, func() {
		done <- syscall.SIGTERM
	})
	hub.SetOpHandler(dispatcher.Handle)

	// --- HTTP ---
	handlers := pkhttp.NewHandlers(pipelineSvc, stateSvc)

	r := chi.NewRouter()
	r.Use(pkhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(chimw.RequestID)
	r.Use(pkhttp.RequestID)
	r.Use(pkhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/ws", hub.HandleWS)
	pkhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	stateSvc.Shutdown(ctx, cfg.Engine.ShutdownTimeout)
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
