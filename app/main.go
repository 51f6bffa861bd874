package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tributary/app/api"
	"tributary/app/cfg"
	"tributary/app/database"
	"tributary/app/feed"
	"tributary/app/sources"
	"tributary/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Tributary server", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)

	fetchTimeout := time.Duration(c.FetchTimeout) * time.Second
	batchTimeout := time.Duration(c.BatchTimeout) * time.Second

	httpClient := &http.Client{Timeout: fetchTimeout}
	fetcher := feed.NewFetcher(fetchTimeout, c.UserAgent)
	refresher := feed.NewRefresher(fetcher, sourceRepo, itemRepo, c.WorkerCount, batchTimeout)
	filterer := feed.NewFilterer()
	contentExtractor := feed.NewContentExtractor()
	resolver := sources.NewResolver(httpClient, c.UserAgent)
	iconResolver := sources.NewIconResolver(httpClient, c.UserAgent)

	if c.SeedFile != "" {
		if err := importSeedFile(c.SeedFile, resolver, sourceRepo); err != nil {
			slog.Error("Failed to import seed file", "path", c.SeedFile, "error", err)
			os.Exit(1)
		}
	}

	scheduler := tasks.NewScheduler(sourceRepo, itemRepo, refresher, iconResolver, contentExtractor, httpClient)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", c.WorkerCount, "interval_seconds", c.SchedulerInterval)

	handler := api.NewHandler(sourceRepo, itemRepo, resolver, iconResolver, refresher, filterer, scheduler)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// importSeedFile registers every source listed in the seed file, skipping
// entries whose canonical endpoint is already present. Resolution failures
// for individual entries are logged and skipped so one bad entry does not
// block startup.
func importSeedFile(path string, resolver *sources.Resolver, sourceRepo database.SourceRepository) error {
	seeds, err := sources.LoadSeedFile(path)
	if err != nil {
		return err
	}

	imported := 0
	for _, seed := range seeds {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		resolution, err := resolver.Resolve(ctx, database.Platform(seed.Platform), seed.Input)
		cancel()
		if err != nil {
			slog.Warn("Skipping seed entry", "platform", seed.Platform, "input", seed.Input, "error", err)
			continue
		}

		existing, err := sourceRepo.GetSourceByFeedURL(resolution.FeedURL)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		source := sources.BuildSource(seed.Owner, database.Platform(seed.Platform), resolution)
		if seed.Name != "" {
			source.Name = seed.Name
		}
		source.Category = seed.Category

		if err := sourceRepo.CreateSource(source); err != nil {
			return err
		}
		imported++
	}

	if imported > 0 {
		slog.Info("Imported seed sources", "count", imported, "total_entries", len(seeds))
	}
	return nil
}
