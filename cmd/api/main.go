package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fayad123/bcards-server/internal/common/bootstrap"
	"github.com/fayad123/bcards-server/internal/common/config"
	"github.com/fayad123/bcards-server/internal/common/logger"
	srv "github.com/fayad123/bcards-server/internal/common/server"
)

func main() {
	envFile := config.LoadEnvFile()

	log, err := logger.New(os.Getenv("LOG_DIR"), "api", os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if envFile != "" {
		log.Infof("loaded environment from %s", envFile)
	}

	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Fatalf("failed to initialize api: %v", err)
	}
	if err := app.Start(); err != nil {
		log.Fatalf("failed to start background jobs: %v", err)
	}

	server := srv.New(srv.DefaultConfig(cfg.HTTPPort), app.Handler)
	if err := srv.Run(ctx, server, log, "api", app.Hooks); err != nil {
		log.Fatalf("api service stopped: %v", err)
	}
}
