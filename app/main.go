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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/category-comb/app/api"
	"github.com/lysyi3m/category-comb/app/cache"
	"github.com/lysyi3m/category-comb/app/catalog"
	"github.com/lysyi3m/category-comb/app/categories"
	"github.com/lysyi3m/category-comb/app/cfg"
	"github.com/lysyi3m/category-comb/app/database"
	"github.com/lysyi3m/category-comb/app/tasks"
	"github.com/lysyi3m/category-comb/app/woo"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Category Comb stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting Category Comb", "version", appCfg.Version, "store_url", appCfg.StoreURL)

	settings, err := catalog.LoadSettings(appCfg.CatalogFile, appCfg.StoreURL)
	if err != nil {
		return fmt.Errorf("failed to load catalog settings: %w", err)
	}

	store, closeStore, err := openSnapshotStore(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := woo.NewClient(&http.Client{}, woo.Options{
		StoreURL:       appCfg.StoreURL,
		CategoriesPath: appCfg.CategoriesPath,
		ConsumerKey:    appCfg.ConsumerKey,
		ConsumerSecret: appCfg.ConsumerSecret,
		PerPage:        appCfg.PerPage,
		UserAgent:      appCfg.UserAgent,
		Timeout:        appCfg.FetchTimeout,
	})

	service := categories.NewService(client, store.snapshots, settings, categories.Options{
		StaleTime: appCfg.StaleTime,
		Retry:     appCfg.FetchRetry,
		Timeout:   time.Duration(woo.MaxPages) * appCfg.FetchTimeout,
	})
	defer service.Close()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "refresh_interval", appCfg.RefreshInterval.String())
	scheduler := tasks.NewScheduler(service, appCfg.RefreshInterval, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(service, scheduler, store.health, store.history)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}

type snapshotStore struct {
	snapshots categories.SnapshotStore
	health    api.HealthChecker
	history   api.SnapshotHistory
}

// openSnapshotStore picks Redis when an address is configured and SQLite
// otherwise.
func openSnapshotStore(appCfg *cfg.Cfg) (snapshotStore, func(), error) {
	if appCfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewCache(ctx, appCfg.RedisAddr, cache.DefaultSnapshotTTL)
		if err != nil {
			return snapshotStore{}, nil, err
		}

		closeFn := func() {
			if err := redisCache.Close(); err != nil {
				slog.Warn("Failed to close Redis client", "error", err)
			}
		}

		return snapshotStore{snapshots: redisCache, health: redisCache}, closeFn, nil
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return snapshotStore{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return snapshotStore{}, nil, err
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	repo := database.NewRepository(db, database.DefaultSnapshotRetention)
	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}

	return snapshotStore{snapshots: repo, health: repo, history: repo}, closeFn, nil
}
