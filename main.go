package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rawmatterx/oncostaging/analysis"
	"github.com/rawmatterx/oncostaging/audit"
	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/data"
	"github.com/rawmatterx/oncostaging/extraction"
	"github.com/rawmatterx/oncostaging/handlers"
	"github.com/rawmatterx/oncostaging/health"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
	"github.com/rawmatterx/oncostaging/scheduler"
	"github.com/rawmatterx/oncostaging/server"
	"github.com/rawmatterx/oncostaging/staging"
	"github.com/rawmatterx/oncostaging/validation"
)

func main() {
	// Get the working directory and read the env variables
	if err := godotenv.Load(); err != nil {
		// If failed, try loading from executable directory
		if ex, err := os.Executable(); err == nil {
			_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetentionAndSize(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize, false)
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"address", cfg.Address,
		"port", cfg.Port,
		"audit_db", cfg.AuditDBPath,
	)

	catalog := data.NewGuidelineCatalog(cfg.GuidelinesFile)

	var store interfaces.AuditStore
	if cfg.AuditDBPath != "" {
		s, err := audit.Open(cfg.AuditDBPath)
		if err != nil {
			logging.Error("Failed to open audit database", "path", cfg.AuditDBPath, "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	} else {
		logging.Warn("Audit trail disabled, AUDIT_DB_PATH is empty")
	}

	validator := validation.NewFeatureValidator(cfg.Staging)
	engine := staging.NewEngine(cfg.Staging, staging.NewRegistry(), validator, catalog)
	extractor := extraction.NewExtractor(cfg.Staging)
	analyzer := analysis.NewService(extractor, validator, engine, store)
	reloadEvery := time.Duration(cfg.GuidelinesReloadHours) * time.Hour

	jobs := scheduler.NewScheduler(catalog, store, scheduler.Options{
		ReloadEvery:   reloadEvery,
		RetentionDays: cfg.AuditRetentionDays,
	})
	if err := jobs.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer jobs.Stop()

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		Analyzer:  analyzer,
		Extractor: extractor,
		Engine:    engine,
		Validator: validator,
		Catalog:   catalog,
		Store:     store,
		Health:    health.NewHealthChecker(catalog, store, engine, reloadEvery),
	})

	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
		return
	}

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
