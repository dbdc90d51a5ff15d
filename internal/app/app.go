package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackNotify/config"
	"github.com/BearBump/TrackNotify/internal/cache/rediscache"
	"github.com/BearBump/TrackNotify/internal/services/parcels"
	"github.com/BearBump/TrackNotify/internal/services/scheduler"
	"github.com/BearBump/TrackNotify/internal/services/stocks"
	"github.com/pkg/errors"
)

// App holds the wired services shared by every binary.
type App struct {
	Cfg     *config.Config
	Store   Store
	Parcels *parcels.Service
	Stocks  *stocks.Service
	Runner  *scheduler.Runner

	closers []func()
}

// CheckJobConfig reports settings that jobs need beyond what
// config.Validate checks. Unknown job names are ignored.
func CheckJobConfig(cfg *config.Config, jobs ...string) error {
	for _, job := range jobs {
		switch job {
		case parcels.JobPoll, parcels.JobDigest:
			if err := cfg.Track17.Validate(); err != nil {
				return errors.Wrap(err, job)
			}
		}
	}
	return nil
}

// Build wires every component from cfg.
func Build(ctx context.Context, cfg *config.Config, f Factories) (*App, error) {
	st, err := f.NewStore(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "storage")
	}
	a := &App{Cfg: cfg, Store: st}
	a.closers = append(a.closers, st.Close)

	parcelNotifier := f.NewNotifier(cfg.Discord.ParcelWebhookURL, cfg.Discord.RatePerSecond)
	stockNotifier := f.NewNotifier(cfg.Discord.StockWebhookURL, cfg.Discord.RatePerSecond)

	a.Parcels = parcels.New(st, f.NewCarrier(cfg), parcelNotifier)
	a.Stocks = stocks.New(st, f.NewMarket(cfg), stockNotifier, cfg.Jobs.Location())
	a.Runner = scheduler.NewRunner(cfg.Jobs.RunTimeout())

	if rc := f.NewRedis(cfg); rc != nil {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, continuing without it", "error", err.Error())
		} else {
			a.Runner.WithLocker(redisLocker{rc: rc}, cfg.Jobs.LockTTL())
			a.Stocks.WithCache(rc, time.Duration(cfg.Quotes.CacheTTLSeconds)*time.Second)
			if cfg.Track17.QuotaLimit > 0 {
				a.Parcels.WithQuota(rc, int64(cfg.Track17.QuotaLimit), time.Duration(cfg.Track17.QuotaWindowSeconds)*time.Second)
			}
		}
	}

	if p := f.NewProducer(cfg); p != nil {
		a.closers = append(a.closers, func() { _ = p.Close() })
		a.Parcels.WithPublisher(p)
	}

	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Jobs maps job names to their run functions.
func (a *App) Jobs() map[string]scheduler.JobFunc {
	return map[string]scheduler.JobFunc{
		parcels.JobPoll: func(ctx context.Context, runID string) (any, error) {
			return a.Parcels.Poll(ctx, runID)
		},
		parcels.JobDigest: func(ctx context.Context, runID string) (any, error) {
			return a.Parcels.Digest(ctx, runID)
		},
		stocks.Job: func(ctx context.Context, runID string) (any, error) {
			return a.Stocks.Run(ctx, runID)
		},
	}
}

// RunOnce runs one job through the runner.
func (a *App) RunOnce(ctx context.Context, job string) error {
	fn, ok := a.Jobs()[job]
	if !ok {
		return errors.Wrap(scheduler.ErrUnknownJob, job)
	}
	return a.Runner.Run(ctx, job, fn)
}

type redisLocker struct {
	rc *rediscache.RedisCache
}

func (l redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (scheduler.Lock, bool, error) {
	lock, ok, err := l.rc.AcquireLock(ctx, name, ttl)
	if err != nil || !ok {
		return nil, ok, err
	}
	return lock, true, nil
}
