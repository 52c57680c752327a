// Package scheduler repeats pipeline runs on a cron schedule for the serve command.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/models"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context) (*models.RunResult, error)
}

// Status is a snapshot of scheduler state
type Status struct {
	Running   bool
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
	Skipped   int
}

// Service fires runs on a cron schedule. A tick that arrives while a run is
// still in progress is skipped.
type Service struct {
	runner Runner
	cron   *cron.Cron
	logger arbor.ILogger

	runMu sync.Mutex // held for the duration of a run

	mu        sync.Mutex // protects the fields below
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	schedule  string
	entryID   cron.EntryID
	lastRun   *time.Time
	lastError string
	skipped   int
	wg        sync.WaitGroup
}

// NewService creates a scheduler around a runner
func NewService(runner Runner, logger arbor.ILogger) *Service {
	return &Service{
		runner: runner,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start registers the schedule and begins ticking. When runOnStart is set one
// run is launched immediately in the background.
func (s *Service) Start(ctx context.Context, schedule string, runOnStart bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.execute("scheduled")
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.schedule = schedule
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Bool("run_on_start", runOnStart).
		Msg("Scheduler started")

	if runOnStart {
		s.wg.Add(1)
		common.SafeGo(s.logger, "startup run", func() {
			defer s.wg.Done()
			s.execute("startup")
		})
	}

	return nil
}

// Stop halts the schedule, cancels any in-flight run and waits for it to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	cancel()
	<-cronCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow runs immediately on the caller's goroutine. It returns false
// without running if another run is in progress.
func (s *Service) TriggerNow() bool {
	return s.execute("manual")
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of the scheduler state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:   s.running,
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Skipped:   s.skipped,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// execute performs one run unless another is in progress
func (s *Service) execute(trigger string) bool {
	if !s.runMu.TryLock() {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.logger.Warn().Str("trigger", trigger).Msg("Previous run still in progress, skipping")
		return false
	}
	defer s.runMu.Unlock()
	defer common.RecoverAndLog(s.logger, "scheduled run")

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	startTime := time.Now()
	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastRun = &startTime
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		// Runs are independent; the next tick tries again from the stored cursor
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("Run failed")
		return true
	}

	logEvent := s.logger.Info().
		Str("trigger", trigger).
		Dur("duration", time.Since(startTime))
	if result != nil {
		logEvent = logEvent.
			Str("run_id", result.RunID).
			Int("records", result.Records).
			Bool("delivered", result.Delivered)
	}
	logEvent.Msg("Scheduled run finished")
	return true
}
