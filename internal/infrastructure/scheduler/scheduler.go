package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// JobFunc is one run of a scheduled job
type JobFunc func(ctx context.Context) error

// JobSpec describes a job and when it runs.
// Exactly one of Interval or Daily must be set.
type JobSpec struct {
	Name string
	// Interval runs the job periodically
	Interval time.Duration
	// Daily runs the job once a day at Hour:Minute
	Daily  bool
	Hour   int
	Minute int
	Run    JobFunc
}

func (s JobSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	}
	if s.Run == nil {
		return fmt.Errorf("%w: %s has no run function", ErrInvalidJob, s.Name)
	}
	if s.Daily == (s.Interval > 0) {
		return fmt.Errorf("%w: %s needs exactly one of interval or daily", ErrInvalidJob, s.Name)
	}
	if s.Daily && (s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59) {
		return fmt.Errorf("%w: %s has invalid time %02d:%02d", ErrInvalidJob, s.Name, s.Hour, s.Minute)
	}
	return nil
}

func (s JobSpec) schedule() string {
	if s.Daily {
		return fmt.Sprintf("daily %02d:%02d", s.Hour, s.Minute)
	}
	return "every " + s.Interval.String()
}

// JobState is the observable state of a registered job
type JobState struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	Runs         int64      `json:"runs"`
	Skipped      int64      `json:"skipped"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

type jobEntry struct {
	spec    JobSpec
	running atomic.Bool

	mu    sync.Mutex
	state JobState
}

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// CheckInterval is how often daily triggers check the clock
	CheckInterval time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		JobTimeout:    30 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// Scheduler runs the connector's periodic and nightly jobs.
// A run still in progress when the next tick arrives makes that tick a no-op.
type Scheduler struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	jobs         []*jobEntry
	triggers     []*CronTrigger
	startTrigger func(context.Context, *CronTrigger) error

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}
	s := &Scheduler{
		config: config,
		logger: logger.Named("scheduler"),
		now:    time.Now,
	}
	s.startTrigger = func(ctx context.Context, t *CronTrigger) error {
		return t.Start(ctx)
	}
	return s
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(spec JobSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	for _, j := range s.jobs {
		if j.spec.Name == spec.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, spec.Name)
		}
	}

	s.jobs = append(s.jobs, &jobEntry{
		spec:  spec,
		state: JobState{Name: spec.Name, Schedule: spec.schedule()},
	})
	return nil
}

// Start starts one loop per interval job and one trigger per daily job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled, jobs run only when triggered manually")
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range s.jobs {
		if job.spec.Daily {
			trigger := NewCronTrigger(CronTriggerConfig{
				Hour:          job.spec.Hour,
				Minute:        job.spec.Minute,
				CheckInterval: s.config.CheckInterval,
			}, func(ctx context.Context) { s.execute(ctx, job) }, s.logger.With(zap.String("job", job.spec.Name)))
			trigger.now = s.now
			if err := s.startTrigger(ctx, trigger); err != nil {
				s.abortStart(cancel)
				return fmt.Errorf("start trigger for job %s: %w", job.spec.Name, err)
			}
			s.triggers = append(s.triggers, trigger)
			continue
		}

		s.wg.Add(1)
		go s.intervalLoop(ctx, job)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// abortStart unwinds a partial Start. Caller holds s.mu.
func (s *Scheduler) abortStart(cancel context.CancelFunc) {
	cancel()
	for _, trigger := range s.triggers {
		if err := trigger.Stop(context.Background()); err != nil {
			s.logger.Warn("Failed to stop cron trigger", zap.Error(err))
		}
	}
	s.triggers = nil
	s.wg.Wait()
	s.cancel = nil
	s.isRunning = false
}

// Stop cancels every loop and waits for in-flight runs
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	triggers := s.triggers
	s.triggers = nil
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	for _, trigger := range triggers {
		if err := trigger.Stop(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of every registered job in registration order
func (s *Scheduler) Status() []JobState {
	s.mu.Lock()
	jobs := s.jobs
	s.mu.Unlock()

	states := make([]JobState, len(jobs))
	for i, job := range jobs {
		job.mu.Lock()
		states[i] = job.state
		job.mu.Unlock()
		states[i].Running = job.running.Load()
	}
	return states
}

func (s *Scheduler) intervalLoop(ctx context.Context, job *jobEntry) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.spec.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

// execute runs the job once unless a previous run is still active
func (s *Scheduler) execute(ctx context.Context, job *jobEntry) {
	log := s.logger.With(zap.String("job", job.spec.Name))

	if !job.running.CompareAndSwap(false, true) {
		job.mu.Lock()
		job.state.Skipped++
		job.mu.Unlock()
		log.Warn("Previous run still in progress, skipping")
		return
	}
	defer job.running.Store(false)

	started := s.now()
	job.mu.Lock()
	job.state.LastStarted = &started
	job.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := runSafely(jobCtx, job.spec.Run)

	finished := s.now()
	job.mu.Lock()
	job.state.Runs++
	job.state.LastFinished = &finished
	job.state.LastError = ""
	if err != nil {
		job.state.LastError = err.Error()
	}
	job.mu.Unlock()

	if err != nil {
		log.Error("Scheduled job failed", zap.Error(err), zap.Duration("duration", finished.Sub(started)))
		return
	}
	log.Debug("Scheduled job finished", zap.Duration("duration", finished.Sub(started)))
}

func runSafely(ctx context.Context, run JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return run(ctx)
}
