package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matbot/internal/api"
	"matbot/internal/assistant"
	"matbot/internal/audit"
	"matbot/internal/config"
	"matbot/internal/logging"
	"matbot/internal/resources"
	"matbot/internal/responder"
	"matbot/internal/theme"
	"matbot/internal/userdb"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logging: console always, debug file when enabled
	var output io.Writer = os.Stdout
	var fileWriter *logging.FileWriter
	if cfg.Logging.DebugEnabled {
		fileWriter, err = logging.NewFileWriter(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Debug log unavailable, console only: %v\n", err)
		} else {
			output = logging.NewMultiWriter(os.Stdout, fileWriter, true)
			defer fileWriter.Close()
		}
	}
	level := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewLogger("main", level, output)
	logger.Info("Starting MATBOT v%s...", version)

	if err := theme.Validate(); err != nil {
		logger.Error("Invalid theme palette: %v", err)
		os.Exit(1)
	}

	// User database
	users, err := userdb.Open(cfg.Storage.UserDBPath, logging.NewLogger("userdb", level, output))
	if err != nil {
		logger.Error("Failed to open user database: %v", err)
		os.Exit(1)
	}

	// Activity log
	activity, err := audit.Open(cfg.Storage.ActivityPath)
	if err != nil {
		logger.Error("Failed to open activity log: %v", err)
		os.Exit(1)
	}
	defer activity.Close()
	logger.Info("Activity log initialized")

	// Reply engine
	respOpts := []responder.Option{
		responder.WithThinkDelay(time.Duration(cfg.Responder.ThinkDelayMS) * time.Millisecond),
	}
	if cfg.Responder.RulesFile != "" {
		opt, err := responder.WithRulesFile(cfg.Responder.RulesFile)
		if err != nil {
			logger.Error("Failed to load responder rules: %v", err)
			os.Exit(1)
		}
		respOpts = append(respOpts, opt)
	}
	replies := responder.New(logging.NewLogger("responder", level, output), respOpts...)

	// Documentation lookups
	var fetcher api.ResourceFetcher
	if cfg.Resources.Enabled {
		fetcher = resources.NewFetcher(cfg.Resources.AllowedHosts, logging.NewLogger("resources", level, output))
		logger.Info("Resource lookups enabled for %v", cfg.Resources.AllowedHosts)
	}

	// API server; the factory gives every browser its own interaction
	var apiServer *api.Server
	interactionLogger := logging.NewLogger("assistant", level, output)
	manager := api.NewInteractionManager(func() *assistant.Interaction {
		return assistant.NewInteraction(users, replies, activity, apiServer, interactionLogger)
	})

	apiConfig := &api.ServerConfig{ResourcesEnabled: cfg.Resources.Enabled}
	apiServer, err = api.NewServer(manager, activity, fetcher, apiConfig, logging.NewLogger("api", level, output))
	if err != nil {
		logger.Error("Failed to initialize API server: %v", err)
		os.Exit(1)
	}
	logger.Info("API server initialized")

	// Watch the user database for external edits
	ctx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if cfg.Storage.WatchUserDB {
		w, err := userdb.NewWatcher(users, func() {
			apiServer.Notify(assistant.Event{Type: "reload"})
		}, logging.NewLogger("watcher", level, output))
		if err != nil {
			logger.Warn("User database watching unavailable: %v", err)
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("Failed to start user database watcher: %v", err)
		} else {
			logger.Info("Watching %s for external changes", cfg.Storage.UserDBPath)
		}
	}

	// Register routes
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
		}
	}()

	// Graceful shutdown handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	logger.Info("MATBOT stopped")
}
