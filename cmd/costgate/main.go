package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cghttp "github.com/costgate/costgate/internal/adapter/http"
	"github.com/costgate/costgate/internal/adapter/litellm"
	"github.com/costgate/costgate/internal/adapter/mcp"
	cgnats "github.com/costgate/costgate/internal/adapter/nats"
	"github.com/costgate/costgate/internal/adapter/otel"
	"github.com/costgate/costgate/internal/adapter/postgres"
	"github.com/costgate/costgate/internal/adapter/pricetable"
	"github.com/costgate/costgate/internal/adapter/ristretto"
	"github.com/costgate/costgate/internal/adapter/tokenizer"
	"github.com/costgate/costgate/internal/adapter/ws"
	"github.com/costgate/costgate/internal/config"
	"github.com/costgate/costgate/internal/domain/model"
	"github.com/costgate/costgate/internal/logger"
	"github.com/costgate/costgate/internal/resilience"
	"github.com/costgate/costgate/internal/service"
)

const version = "0.1.0"

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

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"model_provider", cfg.Models.Provider,
		"quality_enabled", cfg.Agent.Quality.Enabled,
	)

	ctx := context.Background()

	// --- Model table ---
	table, err := loadModelTable(cfg.Models)
	if err != nil {
		return fmt.Errorf("model table: %w", err)
	}
	slog.Info("model table loaded", "models", table.Len())

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS (optional)
	var queue *cgnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = cgnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
	}

	// Completion provider behind a circuit breaker
	provider := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.APIKey)
	provider.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// Estimate cache
	estimateCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer estimateCache.Close()

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	router, err := service.NewRouter(table)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	estimator := service.NewEstimator(tokenizer.New(), pricetable.New(table), estimateCache, cfg.Cache.TTL)

	var evaluator *service.Evaluator
	if cfg.Agent.Quality.Enabled {
		evaluator = service.NewEvaluator(provider, cfg.Agent.Quality.JudgeModel, cfg.Agent.Quality.JudgeMaxTokens)
	}

	agentSvc := service.NewAgentService(cfg.Agent, router, estimator, evaluator, provider, store)
	agentSvc.SetBroadcaster(hub)
	if queue != nil {
		agentSvc.SetQueue(queue)
	}
	if metrics, err := otel.NewMetrics(); err != nil {
		slog.Warn("metrics disabled", "error", err)
	} else {
		agentSvc.SetMetrics(metrics)
	}

	// --- MCP ---
	mcpServer := mcp.NewServer(
		mcp.ServerConfig{Name: "costgate", Version: version},
		mcp.ServerDeps{Pipeline: agentSvc, Models: table},
	)

	// --- HTTP ---
	handlers := cghttp.NewHandlers(agentSvc, table)

	r := chi.NewRouter()

	r.Use(cghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cghttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(cfg, provider, hub))
	r.Get("/ws", hub.HandleWS)
	r.Mount("/mcp", mcpServer.Handler())

	cghttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Provider calls with retries can run long.
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if queue != nil {
		if err := queue.Drain(); err != nil {
			slog.Warn("nats drain", "error", err)
		}
	}
	return srv.Shutdown(shutdownCtx)
}

// loadModelTable builds the priced model table: an explicit YAML file
// takes precedence over the built-in provider preset.
func loadModelTable(cfg config.Models) (*model.Table, error) {
	if cfg.File != "" {
		return model.LoadTable(cfg.File)
	}
	return model.Preset(cfg.Provider)
}

// healthHandler reports service health including provider reachability.
func healthHandler(cfg *config.Config, provider *litellm.Client, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		LiteLLM       string `json:"litellm"`
		NATS          string `json:"nats"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:        "ok",
			LiteLLM:       "ok",
			NATS:          "disabled",
			WSConnections: hub.ConnectionCount(),
		}
		if cfg.NATS.URL != "" {
			status.NATS = "ok"
		}
		if err := provider.Health(r.Context()); err != nil {
			status.LiteLLM = "unreachable"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
