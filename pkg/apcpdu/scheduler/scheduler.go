// Package scheduler fires one poll job per configured device at the
// device's poll interval.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/poller"
)

// JobSubmitter is the subset of poller.WorkerPool the scheduler uses.
type JobSubmitter interface {
	TrySubmit(poller.PollJob) bool
}

type entry struct {
	job      poller.PollJob
	interval time.Duration
	nextRun  time.Time
}

// Scheduler dispatches poll jobs into a JobSubmitter.
type Scheduler struct {
	pool   JobSubmitter
	logger *slog.Logger

	mu      sync.Mutex
	entries []entry

	done chan struct{}
}

// New creates a Scheduler for every device in cfg. Call Start to begin
// dispatching.
func New(cfg *config.LoadedConfig, pool JobSubmitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	s := &Scheduler{
		pool:   pool,
		logger: logger,
		done:   make(chan struct{}),
	}
	s.entries = buildEntries(cfg)
	return s
}

// Start runs the scheduling loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		if len(s.entries) == 0 {
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
				continue
			}
		}

		sort.Slice(s.entries, func(i, j int) bool {
			return s.entries[i].nextRun.Before(s.entries[j].nextRun)
		})
		next := s.entries[0].nextRun
		s.mu.Unlock()

		delay := time.Until(next)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := time.Now()
		s.mu.Lock()
		for i := range s.entries {
			if s.entries[i].nextRun.After(now) {
				break
			}
			s.fire(s.entries[i].job)
			s.entries[i].nextRun = now.Add(s.entries[i].interval)
		}
		s.mu.Unlock()
	}
}

// Stop waits for Start to return. Cancel its context first.
func (s *Scheduler) Stop() {
	<-s.done
}

// Reload replaces the device set. Every device, new or kept, is polled
// immediately.
func (s *Scheduler) Reload(cfg *config.LoadedConfig) {
	entries := buildEntries(cfg)
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.logger.Info("scheduler: config reloaded", "devices", len(entries))
}

// Entries returns the number of scheduled devices.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func buildEntries(cfg *config.LoadedConfig) []entry {
	if cfg == nil {
		return nil
	}
	now := time.Now()
	entries := make([]entry, 0, len(cfg.Devices))
	for _, name := range cfg.Names() {
		dc := cfg.Devices[name]
		interval := dc.PollIntervalDuration()
		if interval <= 0 {
			interval = time.Duration(config.DefaultPollInterval) * time.Second
		}
		entries = append(entries, entry{
			job:      poller.PollJob{Device: name, Config: dc},
			interval: interval,
			nextRun:  now,
		})
	}
	return entries
}

func (s *Scheduler) fire(job poller.PollJob) {
	if !s.pool.TrySubmit(job) {
		s.logger.Warn("scheduler: job queue full, dropping poll", "device", job.Device)
		return
	}
	s.logger.Debug("scheduler: fired poll", "device", job.Device)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
