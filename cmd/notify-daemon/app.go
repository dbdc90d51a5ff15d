package main

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackNotify/config"
	"github.com/BearBump/TrackNotify/internal/app"
	"github.com/BearBump/TrackNotify/internal/services/parcels"
	"github.com/BearBump/TrackNotify/internal/services/scheduler"
	"github.com/BearBump/TrackNotify/internal/services/stocks"
)

// RunNotifyDaemon schedules every job and serves the ops HTTP API until ctx
// is done. onListen, when set, receives the bound HTTP address.
func RunNotifyDaemon(ctx context.Context, cfg *config.Config, f app.Factories, onListen func(addr string)) error {
	if err := app.CheckJobConfig(cfg, parcels.JobPoll, parcels.JobDigest, stocks.Job); err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg, f)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.Runner, cfg.Jobs.Location())
	specs := map[string]string{
		parcels.JobPoll:   cfg.Daemon.PollSchedule,
		parcels.JobDigest: cfg.Daemon.ReportSchedule,
		stocks.Job:        cfg.Daemon.StockSchedule,
	}
	for name, fn := range a.Jobs() {
		if err := sched.Add(name, specs[name], fn); err != nil {
			return err
		}
	}

	slog.Info("notify daemon starting", "http_addr", cfg.Daemon.HTTPAddr, "storage", cfg.Storage.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the store is closed by the deferred a.Close, so every exit path
	// waits for the scheduler to drain its runs first
	schedErr := make(chan error, 1)
	go func() {
		schedErr <- sched.Run(ctx)
	}()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runDaemonHTTPServer(ctx, daemonHTTPOpts{
			httpAddr:  cfg.Daemon.HTTPAddr,
			onListen:  onListen,
			scheduler: sched,
			cfg:       cfg,
		})
	}()

	select {
	case <-ctx.Done():
		<-schedErr
		return ctx.Err()
	case err := <-schedErr:
		cancel()
		<-httpErr
		return err
	case err := <-httpErr:
		cancel()
		<-schedErr
		return err
	}
}
