package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service runs named maintenance tasks on fixed intervals until its context
// is cancelled.
type Service struct {
	l     *slog.Logger
	mu    sync.Mutex
	tasks []task
	wg    sync.WaitGroup
}

type task struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
}

func New(l *slog.Logger) *Service {
	return &Service{l: l.With("component", "jobs")}
}

// Every registers run under name. Non-positive intervals are ignored.
func (s *Service) Every(name string, interval time.Duration, run func(context.Context) error) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, interval: interval, run: run})
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.schedule(ctx, t)
	}
}

// Wait blocks until every scheduled task has observed cancellation.
func (s *Service) Wait() {
	s.wg.Wait()
}

// RunNow executes a registered task synchronously.
func (s *Service) RunNow(ctx context.Context, name string) bool {
	s.mu.Lock()
	var found *task
	for i := range s.tasks {
		if s.tasks[i].name == name {
			found = &s.tasks[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return false
	}
	s.runTask(ctx, *found)
	return true
}

func (s *Service) schedule(ctx context.Context, t task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runTask(ctx, t)
		}
	}
}

func (s *Service) runTask(ctx context.Context, t task) {
	start := time.Now()
	if err := t.run(ctx); err != nil {
		s.l.WarnContext(ctx, "job run failed", "job", t.name, "err", err)
		return
	}
	s.l.DebugContext(ctx, "job run complete", "job", t.name, "durationMs", time.Since(start).Milliseconds())
}
