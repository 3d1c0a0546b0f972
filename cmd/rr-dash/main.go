package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/config"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-dash"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Debug(map[string]any{
		"version":  version,
		"env":      cfg.Env,
		"location": cfg.API.Location,
		"port":     cfg.API.Port,
		"prefs_db": cfg.Prefs.DB,
	}, "Starting rr-dash")

	// Cancel in-flight requests and live streams on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ios := defaultStreams()
	root, closer := newRootCmd(cfg, ios)
	err = root.ExecuteContext(ctx)
	if cerr := closer(); cerr != nil {
		log.Warn(map[string]any{"error": cerr.Error()}, "Failed to close application")
	}
	if err != nil {
		fmt.Fprintf(ios.Err, "%s %v\n", red("Error:"), err)
		stop()
		os.Exit(1)
	}
}
