// Package scheduler triggers recurring incremental import runs.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ImportRunner is the slice of the orchestrator the scheduler needs
type ImportRunner interface {
	RunIncremental(ctx context.Context, kind importsync.StreamKind) (importsync.Stats, error)
}

// ImportCronScheduler fires incremental runs for every stream on a cron
// schedule. Overlap protection lives in the run locker, not here; a tick
// that finds a run in progress just logs and moves on.
type ImportCronScheduler struct {
	cron     *cron.Cron
	runner   ImportRunner
	schedule string
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
}

// NewImportCronScheduler creates a scheduler with a standard 5-field
// cron schedule.
func NewImportCronScheduler(runner ImportRunner, schedule string, logger *zap.Logger) *ImportCronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportCronScheduler{
		cron:     cron.New(),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the job and starts the cron loop
func (s *ImportCronScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return shared.NewDomainError("CONFIGURATION_ERROR", "invalid import cron schedule: "+s.schedule)
	}
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("import scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop, waiting for an in-flight tick
func (s *ImportCronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("import scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick runs one incremental pass over every stream kind
func (s *ImportCronScheduler) tick() {
	ctx := context.Background()
	for _, kind := range []importsync.StreamKind{importsync.StreamOrders, importsync.StreamExpenses} {
		stats, err := s.runner.RunIncremental(ctx, kind)
		if err != nil {
			if errors.Is(err, shared.ErrRunInProgress) {
				s.logger.Info("skipping scheduled import, run already in progress",
					zap.String("kind", kind.String()))
				continue
			}
			s.logger.Error("scheduled import failed",
				zap.String("kind", kind.String()),
				zap.Error(err))
			continue
		}
		s.logger.Info("scheduled import finished",
			zap.String("kind", kind.String()),
			zap.Int("created", stats.Created),
			zap.Int("updated", stats.Updated),
			zap.Int("skipped", stats.Skipped),
			zap.Int("errors", stats.Errors))
	}
}
