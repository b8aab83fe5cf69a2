// Kestrel - Cross-border decision intelligence.
// Copyright (c) 2025 crossborder-intel
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/crossborder-intel/kestrel/internal/api"
	"github.com/crossborder-intel/kestrel/internal/bus"
	"github.com/crossborder-intel/kestrel/internal/cache"
	"github.com/crossborder-intel/kestrel/internal/composite"
	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/history"
	"github.com/crossborder-intel/kestrel/internal/pipeline"
	"github.com/crossborder-intel/kestrel/internal/ratelimit"
	"github.com/crossborder-intel/kestrel/internal/report"
	"github.com/crossborder-intel/kestrel/internal/repository"
	"github.com/crossborder-intel/kestrel/internal/rules"
	"github.com/crossborder-intel/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("KESTREL_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	cfg, err := domain.LoadFromEnv(cfg)
	if err != nil {
		slog.Error("failed to load environment config", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Screening Engine
	engine, err := rules.NewEngine(100)
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Load rules from the database and, optionally, a rule directory
	if err := loadRules(ctx, cfg, repo, engine); err != nil {
		slog.Error("failed to load screening rules", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "rules_count", engine.RulesCount())

	// Initialize Composite Scorer
	scores := composite.NewService(nil, cacheImpl, cfg.Pipeline.CompositeTTL, logger)
	slog.Info("composite scorer initialized", "ttl", cfg.Pipeline.CompositeTTL)

	// Initialize Precedent Matcher
	matcher := history.NewMatcher(repo, logger)

	// Initialize Report Orchestrator. The repository doubles as the
	// governance log, and the screening engine feeds the fan-out.
	var macroSource domain.MacroSource
	orchestrator := report.NewOrchestrator(scores, macroSource, matcher, repo, busImpl, repo, engine, nil, logger)

	// Initialize Decision Pipeline. Runs are online only when an
	// external macro source is wired in; without one every packet is
	// stamped offline.
	pipe := pipeline.New(orchestrator, repo, busImpl, repo, macroSource != nil, logger)
	slog.Info("decision pipeline initialized", "run_timeout", cfg.Pipeline.RunTimeout)

	// Initialize intake rate limiter when the cache backend supports
	// windowed counters.
	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimitPerMin > 0 {
		if counter, ok := cacheImpl.(ratelimit.Counter); ok {
			limiter = ratelimit.NewLimiter(counter, cfg.Server.RateLimitPerMin, time.Minute)
			slog.Info("intake rate limiter enabled", "limit_per_min", cfg.Server.RateLimitPerMin)
		} else {
			slog.Warn("cache backend has no counter support, rate limiting disabled")
		}
	}

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, pipe)

		tenantIDs := []string{}
		if envTenants := os.Getenv("KESTREL_TENANTS"); envTenants != "" {
			tenantIDs = strings.Split(envTenants, ",")
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, scores, pipe, limiter, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// loadRules loads screening rules from the database, then merges any
// YAML rule files from the configured rule directory on top.
func loadRules(ctx context.Context, cfg *domain.Config, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListScreeningRules(ctx, api.GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		dbRules = nil // Start with empty rules - they can be added via API
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		if err := engine.LoadRules(dbRules); err != nil {
			return err
		}
	}

	if cfg.Pipeline.RuleDir != "" {
		fileRules, err := rules.LoadDir(cfg.Pipeline.RuleDir)
		if err != nil {
			return fmt.Errorf("loading rule directory %s: %w", cfg.Pipeline.RuleDir, err)
		}
		slog.Info("loading rules from directory", "dir", cfg.Pipeline.RuleDir, "count", len(fileRules))
		if err := engine.LoadRules(fileRules); err != nil {
			return err
		}
	}

	if engine.RulesCount() == 0 {
		slog.Info("no screening rules loaded - configure via POST /rules API")
	}

	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 KESTREL                  ║")
	fmt.Println("  ║   Cross-Border Decision Intelligence      ║")
	fmt.Println("  ║      Every decision, fully gated.         ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /decisions               - Run the decision pipeline")
	fmt.Println("    GET  /decisions               - List decision packets")
	fmt.Println("    GET  /decisions/{id}          - Get a decision packet")
	fmt.Println("    POST /decisions/{id}/outcome  - Record a decision outcome")
	fmt.Println("    POST /screen                  - Screen a profile")
	fmt.Println("    GET  /rules                   - List screening rules")
	fmt.Println("    POST /rules                   - Create a screening rule")
	fmt.Println("    POST /rules/reload            - Hot-reload rules from database")
	fmt.Println("    GET  /patterns                - List historical precedents")
	fmt.Println("    GET  /health                  - Health check")
	fmt.Println()
}
