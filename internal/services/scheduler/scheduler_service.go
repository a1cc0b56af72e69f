package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	syncsvc "github.com/ternarybob/curator/internal/services/sync"
)

const jobName = "sync-all-sources"

// Service schedules the periodic sync of every tenant's sources. A tick
// that lands while a manually triggered run is in flight is skipped; the
// runner is single-flight.
type Service struct {
	runner  *syncsvc.Runner
	sources interfaces.SourceStorage
	cron    *cron.Cron
	logger  arbor.ILogger

	// mu guards the job state below; the cron goroutine writes it while
	// status requests read it.
	mu        sync.Mutex
	cronID    cron.EntryID
	schedule  string
	running   bool
	lastRun   *time.Time
	lastError string
}

// NewService creates the sync scheduler.
func NewService(runner *syncsvc.Runner, sources interfaces.SourceStorage, logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		runner:  runner,
		sources: sources,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start begins the scheduler with the given cron expression.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "0 */6 * * *"
	}

	cronID, err := s.cron.AddFunc(cronExpr, s.runScheduledSync)
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", cronExpr, err)
	}

	s.cronID = cronID
	s.schedule = cronExpr
	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", cronExpr).Msg("Sync scheduler started")
	return nil
}

// Stop halts the scheduler. An in-flight sync run finishes on its own.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Sync scheduler stopped")
	return nil
}

// IsRunning returns true when the scheduler is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetJobStatus returns the status of the scheduled sync job.
func (s *Service) GetJobStatus() *interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &interfaces.JobStatus{
		Name:      jobName,
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}

	if s.running {
		for _, entry := range s.cron.Entries() {
			if entry.ID == s.cronID {
				next := entry.Next
				status.NextRun = &next
				break
			}
		}
	}

	return status
}

// runScheduledSync triggers a full sync for every tenant with sources.
func (s *Service) runScheduledSync() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Recovered panic in scheduled sync")
		}
	}()

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.lastError = ""
	s.mu.Unlock()

	tenants, err := s.sources.ListTenants()
	if err != nil {
		s.setLastError(err.Error())
		s.logger.Error().Err(err).Msg("Failed to list tenants for scheduled sync")
		return
	}

	for _, tenantID := range tenants {
		if err := s.runner.TriggerAll(tenantID); err != nil {
			if errors.Is(err, syncsvc.ErrAlreadyRunning) {
				s.logger.Warn().
					Str("tenant_id", tenantID).
					Msg("Skipping scheduled sync, a run is already in progress")
			} else {
				s.setLastError(err.Error())
				s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to trigger scheduled sync")
			}
			continue
		}

		// The runner is single-flight across tenants; wait for this
		// tenant's run to finish before starting the next.
		s.waitForRunner()
	}
}

func (s *Service) setLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *Service) waitForRunner() {
	for s.runner.Status().IsRunning {
		time.Sleep(time.Second)
	}
}
