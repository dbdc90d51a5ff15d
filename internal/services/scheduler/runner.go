package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned when another run of the same job holds the lock.
var ErrAlreadyRunning = errors.New("job already running")

// JobFunc runs one job. The returned report is kept for Stats.
type JobFunc func(ctx context.Context, runID string) (any, error)

type Lock interface {
	Release(ctx context.Context) error
}

// Locker is a cross-process run lock. ok is false when the lock is held elsewhere.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (lock Lock, ok bool, err error)
}

type Runner struct {
	locker  Locker
	timeout time.Duration
	lockTTL time.Duration
	stats   *Stats

	mu      sync.Mutex
	running map[string]bool
}

func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Runner{
		timeout: timeout,
		lockTTL: 2 * timeout,
		stats:   newStats(),
		running: map[string]bool{},
	}
}

// WithLocker guards runs with a cross-process lock held for at most ttl.
func (r *Runner) WithLocker(l Locker, ttl time.Duration) *Runner {
	r.locker = l
	if ttl > 0 {
		r.lockTTL = ttl
	}
	return r
}

func (r *Runner) Stats() *Stats { return r.stats }

// Run executes fn under a fresh run id, the run timeout and the run lock.
func (r *Runner) Run(ctx context.Context, job string, fn JobFunc) error {
	runID := uuid.NewString()
	log := slog.With("job", job, "run_id", runID)

	if !r.begin(job) {
		log.Warn("run skipped", "reason", "in progress in this process")
		r.stats.skipped(job)
		return ErrAlreadyRunning
	}
	defer r.end(job)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.locker != nil {
		lock, ok, err := r.locker.Acquire(ctx, job, r.lockTTL)
		switch {
		case err != nil:
			log.Warn("acquire run lock", "error", err.Error())
		case !ok:
			log.Warn("run skipped", "reason", "lock held by another process")
			r.stats.skipped(job)
			return ErrAlreadyRunning
		default:
			defer func() {
				relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer relCancel()
				if err := lock.Release(relCtx); err != nil {
					log.Warn("release run lock", "error", err.Error())
				}
			}()
		}
	}

	started := time.Now().UTC()
	log.Info("run started")
	report, err := fn(ctx, runID)
	took := time.Since(started)
	r.stats.finished(job, runID, started, took, report, err)

	if err != nil {
		log.Error("run failed", "took", took.String(), "error", err.Error())
		return err
	}
	log.Info("run finished", "took", took.String())
	return nil
}

func (r *Runner) begin(job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[job] {
		return false
	}
	r.running[job] = true
	return true
}

func (r *Runner) end(job string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, job)
}
