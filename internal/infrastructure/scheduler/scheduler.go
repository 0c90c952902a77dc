// Package scheduler runs the service's periodic background jobs, such as
// the sweep that releases expired payment holds.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus is the outcome of a job's latest run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Runner is anything with a single periodic unit of work
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context) error

// Run calls f
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Job is a named Runner executed every Interval. Timeout bounds one run.
type Job struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	RunOnStart bool
	Runner     Runner
}

func (j Job) validate() error {
	if j.Name == "" || j.Runner == nil || j.Interval <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidJob, j.Name)
	}
	return nil
}

// JobStats describes a job's run history
type JobStats struct {
	Name        string        `json:"name"`
	Status      JobStatus     `json:"status"`
	Runs        int           `json:"runs"`
	Failures    int           `json:"failures"`
	LastError   string        `json:"last_error,omitempty"`
	LastStarted time.Time     `json:"last_started"`
	LastRunTime time.Duration `json:"last_run_time"`
}

type jobState struct {
	job     Job
	mu      sync.Mutex // serializes runs of one job
	trigger chan struct{}

	statsMu sync.Mutex
	stats   JobStats
}

// Scheduler runs each registered job on its own ticker. A run that is
// still in progress when the next tick fires is not overlapped.
type Scheduler struct {
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*jobState
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// New creates a scheduler
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger: logger.Named("scheduler"),
		jobs:   make(map[string]*jobState),
	}
}

// Register adds a job. Jobs registered after Start run from the next Start.
func (s *Scheduler) Register(job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = &jobState{
		job:     job,
		trigger: make(chan struct{}, 1),
		stats:   JobStats{Name: job.Name, Status: JobStatusPending},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one goroutine per job
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	for _, name := range s.order {
		st := s.jobs[name]
		s.wg.Add(1)
		go s.loop(ctx, st)
		s.logger.Info("Job scheduled",
			zap.String("job", name),
			zap.Duration("interval", st.job.Interval),
		)
	}
}

// Stop cancels all loops and waits for in-flight runs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether Start has been called without Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Trigger asks a running job loop to run now. Triggers coalesce.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case st.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Stats returns a snapshot of every job's history in registration order
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStats, 0, len(s.order))
	for _, name := range s.order {
		st := s.jobs[name]
		st.statsMu.Lock()
		out = append(out, st.stats)
		st.statsMu.Unlock()
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, st *jobState) {
	defer s.wg.Done()

	if st.job.RunOnStart {
		s.execute(ctx, st)
	}

	ticker := time.NewTicker(st.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, st)
		case <-st.trigger:
			s.execute(ctx, st)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, st *jobState) {
	if ctx.Err() != nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	runCtx := ctx
	if st.job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, st.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	st.statsMu.Lock()
	st.stats.Status = JobStatusRunning
	st.stats.LastStarted = start
	st.statsMu.Unlock()

	err := runSafely(runCtx, st.job.Runner)
	elapsed := time.Since(start)

	st.statsMu.Lock()
	st.stats.Runs++
	st.stats.LastRunTime = elapsed
	if err != nil {
		st.stats.Status = JobStatusFailed
		st.stats.Failures++
		st.stats.LastError = err.Error()
	} else {
		st.stats.Status = JobStatusSuccess
		st.stats.LastError = ""
	}
	st.statsMu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", st.job.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Job completed",
		zap.String("job", st.job.Name),
		zap.Duration("duration", elapsed),
	)
}

func runSafely(ctx context.Context, r Runner) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return r.Run(ctx)
}
