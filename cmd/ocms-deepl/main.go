// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
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
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-deepl/internal/cache"
	"github.com/olegiv/ocms-deepl/internal/config"
	"github.com/olegiv/ocms-deepl/internal/handler"
	"github.com/olegiv/ocms-deepl/internal/logging"
	"github.com/olegiv/ocms-deepl/internal/module"
	"github.com/olegiv/ocms-deepl/internal/store"
	"github.com/olegiv/ocms-deepl/internal/version"
	"github.com/olegiv/ocms-deepl/modules/deepl_glossary"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const productName = "ocms-deepl"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	syncPage := flag.Int64("sync-page", 0, "Synchronise the glossaries of one glossary folder and exit")
	syncAll := flag.Bool("sync-all", false, "Synchronise all glossary folders and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oCMS DeepL glossary service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEEPL_AUTH_KEY          DeepL API authentication key (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEEPL_API_URL           DeepL API base URL (default: derived from key)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH                 SQLite database path (default: ./data/ocms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT             Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL               Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_GLOSSARY_SYNC_SCHEDULE  Cron spec for scheduled sync (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_GLOSSARY_AUTO_SYNC      Sync glossary folders on save (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}

	if *showVersion {
		_, _ = fmt.Printf("%s %s\n", productName, info.String())
		os.Exit(0)
	}

	if err := run(info, *syncPage, *syncAll); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, syncPage int64, syncAll bool) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewTextLogger(os.Stdout, logLevel)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records are mirrored into the event log from here on.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	cacheConfig := cache.CacheConfig{
		Type:             cache.CacheBackendMemory,
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		FallbackToMemory: true,
		DefaultTTL:       cfg.CacheDefaultTTL(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = cache.CacheBackendRedis
	}
	cacheResult, err := cache.NewCacheWithInfo(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheResult.Cache.Close() }()
	switch {
	case cacheResult.IsFallback:
		slog.Warn("cache initialized", "backend", "memory", "note", "Redis unavailable, using fallback",
			"url", cache.SanitizeRedisURL(cfg.RedisURL), "error", cacheResult.FallbackErr)
	default:
		slog.Info("cache initialized", "backend", cacheResult.BackendType)
	}

	hooks := module.NewHookRegistry(logger)
	registry := module.NewRegistry(logger)

	glossaryModule := deepl_glossary.New(deepl_glossary.WithUserAgent(info.UserAgent(productName)))
	if err := registry.Register(glossaryModule); err != nil {
		return fmt.Errorf("registering %s module: %w", glossaryModule.Name(), err)
	}

	moduleCtx := &module.Context{
		DB:     db,
		Store:  store.New(db),
		Logger: logger,
		Config: cfg,
		Hooks:  hooks,
		Cache:  cacheResult.Cache,
	}
	if err := registry.InitAll(moduleCtx); err != nil {
		return fmt.Errorf("initializing modules: %w", err)
	}
	defer func() {
		if err := registry.ShutdownAll(); err != nil {
			slog.Error("error shutting down modules", "error", err)
		}
	}()

	if syncPage > 0 || syncAll {
		return runSync(glossaryModule, syncPage)
	}

	return serve(cfg, registry, cacheResult, info)
}

// runSync performs a one-off glossary sync from the command line.
func runSync(m *deepl_glossary.Module, pageID int64) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if pageID > 0 {
		report, err := m.SyncPage(ctx, pageID)
		if err != nil {
			return fmt.Errorf("syncing page %d: %w", pageID, err)
		}
		slog.Info("glossary sync finished", "page_id", pageID,
			"created", len(report.Created), "deleted", len(report.Deleted), "skipped", len(report.Skipped))
		return nil
	}

	reports, err := m.SyncAll(ctx)
	slog.Info("glossary sync finished", "pages", len(reports))
	return err
}

func serve(cfg *config.Config, registry *module.Registry, cacheResult *cache.CacheResult, info version.Info) error {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, info.Short())
	})

	r.Route("/admin", func(r chi.Router) {
		handler.NewCacheHandler(cacheResult, slog.Default()).RegisterRoutes(r)
		handler.NewModulesHandler(registry, slog.Default()).RegisterRoutes(r)
		registry.AdminRouteAll(r)
	})
	registry.RouteAll(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
