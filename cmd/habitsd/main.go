package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idilsaglam/habits/internal/config"
	"github.com/idilsaglam/habits/internal/directoryserver"
	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run serves the directory until ctx is done and returns the exit code.
func run(ctx context.Context, opts ...config.InitOption) int {
	cfg, err := config.New(opts...)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}
	if err := logger.Init(cfg.LogLevel, ""); err != nil {
		ui.Fail("logger: " + err.Error())
		return 1
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintln(os.Stderr, "logger sync:", err)
		}
	}()

	seed, err := directoryserver.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Log.Errorw("load seed", "file", cfg.SeedFile, "error", err)
		ui.Fail("seed: " + err.Error())
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           directoryserver.NewRouter(seed),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infow("directory server listening",
			"address", cfg.ServerAddress, "users", len(seed.Users), "habits", len(seed.Habits))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorw("listen", "error", err)
			ui.Fail("listen: " + err.Error())
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("shutdown", "error", err)
		return 1
	}
	logger.Log.Info("directory server stopped")
	return 0
}
