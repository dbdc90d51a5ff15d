package scheduler

import (
	"sort"
	"sync"
	"time"
)

type JobStats struct {
	Job          string     `json:"job"`
	Runs         int64      `json:"runs"`
	Failures     int64      `json:"failures"`
	Skipped      int64      `json:"skipped"`
	LastRunID    string     `json:"lastRunId,omitempty"`
	LastRunAt    *time.Time `json:"lastRunAt,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	LastReport   any        `json:"lastReport,omitempty"`
}

type Stats struct {
	mu        sync.Mutex
	startedAt time.Time
	jobs      map[string]*JobStats
}

func newStats() *Stats {
	return &Stats{startedAt: time.Now().UTC(), jobs: map[string]*JobStats{}}
}

type Snapshot struct {
	StartedAt time.Time  `json:"startedAt"`
	Jobs      []JobStats `json:"jobs"`
}

func (s *Stats) job(name string) *JobStats {
	js, ok := s.jobs[name]
	if !ok {
		js = &JobStats{Job: name}
		s.jobs[name] = js
	}
	return js
}

func (s *Stats) skipped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job(name).Skipped++
}

func (s *Stats) finished(name, runID string, at time.Time, took time.Duration, report any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.job(name)
	js.Runs++
	js.LastRunID = runID
	js.LastRunAt = &at
	js.LastDuration = took.String()
	js.LastReport = report
	js.LastError = ""
	if err != nil {
		js.Failures++
		js.LastError = err.Error()
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{StartedAt: s.startedAt, Jobs: make([]JobStats, 0, len(s.jobs))}
	for _, js := range s.jobs {
		out.Jobs = append(out.Jobs, *js)
	}
	sort.Slice(out.Jobs, func(i, j int) bool { return out.Jobs[i].Job < out.Jobs[j].Job })
	return out
}
