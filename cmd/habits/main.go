package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/habits/internal/cli"
	"github.com/idilsaglam/habits/internal/config"
	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand) are registered by config.
	cfg, err := config.New()
	if err != nil {
		ui.Fail("config: " + err.Error())
		os.Exit(2)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		ui.Fail("logger: " + err.Error())
		os.Exit(1)
	}
	ui.SetTheme(cfg.Theme)

	// No subcommand opens the interactive screen.
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"ui"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cli.Options{Config: cfg})
	stop()

	if err := logger.Sync(); err != nil {
		fmt.Fprintln(os.Stderr, "logger sync:", err)
	}
	os.Exit(code)
}
