package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/TrackNotify/internal/app"
	"github.com/pkg/errors"
)

func main() {
	cfg := app.MustLoadConfig(os.Args[1:])
	app.SetupLogging(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunNotifyDaemon(ctx, cfg, app.DefaultFactories(), nil); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
