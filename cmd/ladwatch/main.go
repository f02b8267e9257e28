package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Issier/lad-watch/internal/config"
	"github.com/Issier/lad-watch/internal/discord"
	"github.com/Issier/lad-watch/internal/riot"
	"github.com/Issier/lad-watch/internal/secrets"
	"github.com/Issier/lad-watch/internal/server"
	"github.com/Issier/lad-watch/internal/storage"
	"github.com/Issier/lad-watch/internal/tracker"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting LadWatch")

	// Resolve secrets once at startup
	var provider secrets.Provider = secrets.Env{}
	if cfg.SecretsDir != "" {
		provider = secrets.Dir{Path: cfg.SecretsDir}
	}
	bundle, err := secrets.Resolve(provider)
	if err != nil {
		slog.Error("Failed to resolve secrets", "error", err)
		os.Exit(1)
	}

	// Open the store
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	// Static data loads once; lookups during polling are map hits
	champions, err := riot.LoadChampionIndex(cfg.ChampionDataFile)
	if err != nil {
		slog.Error("Failed to load champion data", "error", err)
		os.Exit(1)
	}

	riotClient := riot.NewClient(bundle.RiotToken, cfg.PlatformBaseURL, cfg.RegionalBaseURL)

	publisher, err := discord.NewPublisher(bundle.DiscordToken, bundle.ChannelID)
	if err != nil {
		slog.Error("Failed to create discord publisher", "error", err)
		os.Exit(1)
	}

	trk := tracker.New(riotClient, repo, publisher, champions, cfg.MaxConcurrentChecks)

	// The tracked player list is re-read each cycle so edits to the
	// players file apply without a restart
	runCycle := func(ctx context.Context) error {
		players, err := storage.LoadTrackedPlayers(cfg.PlayersFile)
		if err != nil {
			return err
		}
		return trk.RunCycle(ctx, players)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional in-process schedule alongside the HTTP trigger
	var scheduler *cron.Cron
	if cfg.PollCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.PollCron, func() {
			if err := runCycle(ctx); err != nil {
				slog.Error("Scheduled cycle failed", "error", err)
			}
		})
		if err != nil {
			slog.Error("Invalid POLL_CRON schedule", "schedule", cfg.PollCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		slog.Info("Scheduler started", "schedule", cfg.PollCron)
	}

	srv := server.New(cfg.Port, runCycle)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		slog.Info("Shutting down", "signal", sig.String())
	}

	cancel()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("LadWatch stopped")
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
