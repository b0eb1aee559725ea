// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/config"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/database"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/gcal"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/handler"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/ics"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/scheduler"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (created with defaults if missing)")
	once := flag.Bool("once", false, "sync every configured calendar once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", err, "config_path", *configPath)
		os.Exit(1)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))
	log.Info("effective config",
		"listen", cfg.Listen,
		"calendars", len(cfg.Calendars),
		"ics_feeds", len(cfg.ICSFeeds()),
		"sync_enabled", cfg.Sync.Enabled,
		"sync_cron", cfg.Sync.Cron,
		"auth", cfg.AdminToken != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Error("database unavailable", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", err)
		os.Exit(1)
	}

	// ── 2. Calendar sources ──────────────────────────────────────────────
	var api service.EventSource
	saJSON, err := cfg.ServiceAccount()
	if err != nil {
		log.Error("failed to read service account", err)
		os.Exit(1)
	}
	if saJSON != nil {
		client, err := gcal.NewClient(ctx, saJSON)
		if err != nil {
			log.Error("invalid service account", err)
			os.Exit(1)
		}
		api = client
	} else {
		log.Info("no Google service account configured; only ICS feeds are readable")
	}
	source := service.NewRoutedSource(api, ics.NewFeed(cfg.ICSFeeds(), nil), cfg.CalendarIDs())

	// ── 3. Wire up layers ────────────────────────────────────────────────
	mappingSvc := service.NewMappingService(source, repository.NewFieldMappingRepository(pool), service.MapperSettings{
		SampleLimit: cfg.Mapper.SampleLimit,
		PastDays:    cfg.Mapper.PastDays,
		FutureDays:  cfg.Mapper.FutureDays,
	})
	syncSvc := service.NewSyncService(
		source,
		mappingSvc,
		repository.NewBookingRepository(pool),
		repository.NewServiceRepository(pool),
		repository.NewSyncLogRepository(pool),
		cfg.CalendarIDs(),
		cfg.Sync.MaxEvents,
	)

	if *once {
		failed := false
		for _, res := range syncSvc.SyncAll(ctx) {
			if res.Error != "" {
				failed = true
			}
			log.Info("sync result", "calendar_id", res.CalendarID, "synced", res.Synced,
				"cancelled", res.Cancelled, "skipped", res.Skipped, "error", res.Error)
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	var sched *scheduler.Scheduler
	if cfg.Sync.Enabled {
		sched, err = scheduler.New(cfg.Sync.Cron, syncSvc, 10*time.Minute)
		if err != nil {
			log.Error("scheduler disabled", err)
			os.Exit(1)
		}
		sched.Start()
	}

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      handler.New(mappingSvc, syncSvc).Router(cfg.AdminToken),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // full syncs run inside the request
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "listen", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", err)
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error("scheduler did not stop in time", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", err)
	}
	log.Info("server stopped")
}
