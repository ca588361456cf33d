package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yoockh/brdextractor/config"
	"github.com/yoockh/brdextractor/internal/logger"
	"github.com/yoockh/brdextractor/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).WithError(err).Fatal("load config")
	}

	log := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, log, server.DefaultFactories())
	if err != nil {
		log.WithError(err).Fatal("init server")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
		os.Exit(1)
	}
}
