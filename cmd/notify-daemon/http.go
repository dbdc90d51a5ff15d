package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/TrackNotify/config"
	"github.com/BearBump/TrackNotify/internal/services/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
)

type jobScheduler interface {
	Jobs() []string
	Trigger(name string) error
	Stats() scheduler.Snapshot
}

type daemonHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	scheduler jobScheduler
	cfg       *config.Config
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newDaemonRouter(opts daemonHTTPOpts) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		if opts.scheduler == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not wired"})
			return
		}
		writeJSON(w, http.StatusOK, opts.scheduler.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		if opts.cfg == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config not wired"})
			return
		}
		// operational settings only, no secrets
		c := opts.cfg
		writeJSON(w, http.StatusOK, map[string]any{
			"storageBackend":       c.Storage.Backend,
			"pollSchedule":         c.Daemon.PollSchedule,
			"reportSchedule":       c.Daemon.ReportSchedule,
			"stockSchedule":        c.Daemon.StockSchedule,
			"runTimeoutSeconds":    int(c.Jobs.RunTimeout().Seconds()),
			"reportTimezone":       c.Jobs.Location().String(),
			"webhookRatePerSecond": c.Discord.RatePerSecond,
			"parcelWebhookSet":     c.Discord.ParcelWebhookURL != "",
			"stockWebhookSet":      c.Discord.StockWebhookURL != "",
			"redisEnabled":         c.Redis.Address() != "",
			"kafkaEnabled":         len(c.Kafka.BrokerList()) > 0,
			"fakeProvider":         c.Track17.Fake,
		})
	})

	r.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if opts.scheduler == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not wired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": opts.scheduler.Jobs()})
	})

	r.Post("/trigger/{job}", func(w http.ResponseWriter, r *http.Request) {
		if opts.scheduler == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not wired"})
			return
		}
		job := chi.URLParam(r, "job")
		if err := opts.scheduler.Trigger(job); err != nil {
			if errors.Is(err, scheduler.ErrUnknownJob) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"triggered": true, "job": job})
	})

	return r
}

func runDaemonHTTPServer(ctx context.Context, opts daemonHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{
		Handler:           newDaemonRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
