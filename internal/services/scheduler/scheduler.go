package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

var ErrUnknownJob = errors.New("unknown job")

type job struct {
	name string
	spec string
	fn   JobFunc
}

// Scheduler fires registered jobs on their cron specs and on manual triggers.
type Scheduler struct {
	runner *Runner
	parser cron.Parser
	c      *cron.Cron

	mu   sync.Mutex
	jobs map[string]job

	triggerCh chan string
}

func New(runner *Runner, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		runner:    runner,
		parser:    parser,
		c:         cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		jobs:      map[string]job{},
		triggerCh: make(chan string, 8),
	}
}

// Add registers fn under name. An empty spec registers a trigger-only job.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return errors.Errorf("job %q already registered", name)
	}
	if spec != "" {
		if _, err := s.parser.Parse(spec); err != nil {
			return errors.Wrapf(err, "job %q spec", name)
		}
	}
	s.jobs[name] = job{name: name, spec: spec, fn: fn}
	return nil
}

func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Trigger queues an immediate run of name (best-effort, non-blocking).
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrUnknownJob, name)
	}
	select {
	case s.triggerCh <- name:
	default:
		slog.Warn("trigger dropped", "job", name, "reason", "queue full")
	}
	return nil
}

func (s *Scheduler) Stats() Snapshot {
	return s.runner.Stats().Snapshot()
}

// Run starts cron and serves triggers until ctx is done, then waits for
// in-flight runs. A started run is not cancelled by ctx; only the runner
// timeout bounds it.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	for _, j := range s.jobs {
		if j.spec == "" {
			continue
		}
		j := j
		if _, err := s.c.AddFunc(j.spec, func() { s.run(runCtx, j) }); err != nil {
			s.mu.Unlock()
			return errors.Wrapf(err, "schedule %q", j.name)
		}
		slog.Info("job scheduled", "job", j.name, "spec", j.spec)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	s.c.Start()
	defer func() {
		<-s.c.Stop().Done()
		wg.Wait()
		slog.Info("scheduler stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-s.triggerCh:
			s.mu.Lock()
			j, ok := s.jobs[name]
			s.mu.Unlock()
			if !ok {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.run(runCtx, j)
			}()
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j job) {
	// errors are logged and counted by the runner
	_ = s.runner.Run(ctx, j.name, j.fn)
}
