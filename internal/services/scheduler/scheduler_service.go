package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/models"
)

// DefaultSchedule runs the batch every six hours.
const DefaultSchedule = "0 */6 * * *"

// BatchRunner runs one batch over a question source.
type BatchRunner interface {
	Run(ctx context.Context, source interfaces.QuestionSource) (*models.RunReport, error)
}

// Service runs the question batch on a cron schedule for continuous
// monitoring. One batch at a time: a tick that fires while a run is still
// in flight is skipped, not queued.
type Service struct {
	config *common.Config
	runner BatchRunner
	source interfaces.QuestionSource
	cron   *cron.Cron
	logger arbor.ILogger

	onReport func(*models.RunReport)

	mu        sync.Mutex // Protects the fields below
	running   bool
	inFlight  bool
	schedule  string
	entryID   cron.EntryID
	lastRun   *time.Time
	lastError string

	runCtx context.Context
	cancel context.CancelFunc
}

// NewService creates a scheduler that runs batches from the given source.
func NewService(config *common.Config, runner BatchRunner, source interfaces.QuestionSource, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		runner: runner,
		source: source,
		cron:   cron.New(),
		logger: logger,
	}
}

// SetReportHandler registers a callback invoked with each completed run's
// report, for rendering or writing report files. The callback runs on its
// own goroutine so a slow or panicking handler cannot stall the scheduler.
func (s *Service) SetReportHandler(handler func(*models.RunReport)) {
	s.onReport = handler
}

// Start begins scheduled execution with the given cron expression. An empty
// expression falls back to the configured watch schedule, then the default.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if cronExpr == "" {
		cronExpr = s.config.Watch.Schedule
	}
	if cronExpr == "" {
		cronExpr = DefaultSchedule
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.execute)
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", cronExpr, err)
	}

	s.runCtx, s.cancel = context.WithCancel(context.Background())
	s.schedule = cronExpr
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", cronExpr).
		Str("next_run", s.cron.Entry(entryID).Next.Format(time.RFC3339)).
		Msg("Scheduler started")

	return nil
}

// Stop cancels any in-flight batch and halts the scheduler, waiting for the
// running job to wind down.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow starts a batch immediately without waiting for the next tick.
// The overlap guard still applies.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return fmt.Errorf("scheduler not running")
	}

	s.logger.Info().Msg("Manual batch trigger requested")
	go s.execute()
	return nil
}

// IsRunning returns true if the scheduler is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status reports the schedule and the last/next run state.
func (s *Service) Status() *interfaces.WatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.WatchStatus{
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		IsRunning: s.inFlight,
		LastError: s.lastError,
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		status.NextRun = &next
	}
	return status
}

// execute runs one batch, skipping the tick when the previous batch is
// still in flight.
func (s *Service) execute() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous batch still in flight, skipping this run")
		return
	}
	s.inFlight = true
	ctx := s.runCtx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	// A panicking batch must not take down the watcher; the next tick still fires
	defer func() {
		if r := recover(); r != nil {
			stackTrace := common.GetStackTrace()
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", stackTrace).
				Msg("Batch panicked, writing crash file")
			common.WriteCrashFile(r, stackTrace)

			now := time.Now()
			s.mu.Lock()
			s.lastRun = &now
			s.lastError = fmt.Sprintf("panic: %v", r)
			s.mu.Unlock()
		}
	}()

	started := time.Now()
	s.logger.Info().Msg("Scheduled batch starting")

	report, err := s.runner.Run(ctx, s.source)

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled batch failed")
		return
	}

	s.logger.Info().
		Dur("elapsed", time.Since(started)).
		Int("questions", report.Total).
		Int("completed", report.Completed).
		Int("timeouts", report.TimedOut).
		Msg("Scheduled batch finished")

	if s.onReport != nil {
		handler := s.onReport
		common.SafeGo(s.logger, "reportHandler", func() {
			handler(report)
		})
	}
}
