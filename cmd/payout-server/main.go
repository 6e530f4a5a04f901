package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/internal/logging"
	"github.com/iwvelando/payout-elasticity/internal/server"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override (e.g. :8080)")
	maxUpload := flag.String("max-upload", "", "maximum request size override (e.g. 512K, 2M)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *maxUpload != "" {
		size, err := server.ParseSize(*maxUpload)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid -max-upload\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	c, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("failed to initialize cache",
			zap.String("op", "main"),
			zap.String("type", cfg.Cache.Type),
			zap.Error(err),
		)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close cache",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(server.Options{
			Logger:         logger,
			MaxUploadSize:  cfg.UploadSizeBytes(),
			Version:        version,
			Cache:          c,
			CacheTTL:       cfg.Cache.EntryTTL(),
			Workers:        cfg.Workers,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("payout API listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
			zap.String("cache", cfg.Cache.Type),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
