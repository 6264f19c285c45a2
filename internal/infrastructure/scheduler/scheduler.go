// Package scheduler runs periodic maintenance jobs on robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is one run of a job. The context is cancelled when the scheduler
// stops or the job exceeds its timeout.
type JobFunc func(ctx context.Context) error

// Config holds scheduler settings
type Config struct {
	// JobTimeout bounds a single run; zero means no bound
	JobTimeout time.Duration
}

// DefaultConfig returns the scheduler defaults
func DefaultConfig() Config {
	return Config{JobTimeout: 5 * time.Minute}
}

// Scheduler runs named jobs on cron expressions with an optional seconds
// field. A run is skipped while the previous run of the same job is still
// going, and a panicking job is recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a stopped scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := zapCronLogger{logger: logger.Named("cron")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
			cron.WithLogger(cronLogger),
		),
		config:  config,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob registers job under name. Examples of spec: "0 */10 * * * *",
// "30 3 * * *", "@every 1h".
func (s *Scheduler) AddJob(name, spec string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("%w %q for %s: %v", ErrInvalidSchedule, spec, name, err)
	}
	s.entries[name] = id
	s.logger.Info("scheduled job added", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// RemoveJob unregisters name. A run in progress finishes.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return nil
}

// JobNames returns the registered job names in sorted order
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns when name runs next; zero before Start
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.mu.Lock()
	id, exists := s.entries[name]
	s.mu.Unlock()
	if !exists {
		return time.Time{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.cron.Entry(id).Next, nil
}

// Start begins running jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Strings("jobs", s.JobNames()))
}

// Stop cancels running jobs and waits for them or for ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(name string, job JobFunc) {
	ctx := s.ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)),
	)
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
