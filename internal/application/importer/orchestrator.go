package importer

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Orchestrator drives import runs: it streams rows from the source,
// imports each inside its own unit of work, aggregates counters and
// advances the per-stream checkpoint. Runs of the same kind are
// serialized through the run locker.
type Orchestrator struct {
	source          importsync.Source
	uow             UnitOfWork
	syncStates      importsync.SyncStateRepository
	locker          importsync.RunLocker
	policy          importsync.ReferencePolicy
	chunkSize       int
	checkpointEvery int
	logger          *zap.Logger
}

// OrchestratorConfig carries the run-shaping knobs
type OrchestratorConfig struct {
	Policy          importsync.ReferencePolicy
	ChunkSize       int
	CheckpointEvery int
}

// NewOrchestrator creates an import orchestrator
func NewOrchestrator(source importsync.Source, uow UnitOfWork, syncStates importsync.SyncStateRepository, locker importsync.RunLocker, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 100
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 100
	}
	if !cfg.Policy.IsValid() {
		cfg.Policy = importsync.PolicySkipOnMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:          source,
		uow:             uow,
		syncStates:      syncStates,
		locker:          locker,
		policy:          cfg.Policy,
		chunkSize:       cfg.ChunkSize,
		checkpointEvery: cfg.CheckpointEvery,
		logger:          logger,
	}
}

// RunDateRange imports every row of a stream inside [from, to]
func (o *Orchestrator) RunDateRange(ctx context.Context, kind importsync.StreamKind, from, to time.Time) (importsync.Stats, error) {
	return o.run(ctx, kind, func(ctx context.Context) (importsync.Stats, error) {
		if kind == importsync.StreamOrders {
			return o.processOrders(ctx, kind, o.source.StreamOrdersByDateRange(ctx, from, to))
		}
		return o.processExpenses(ctx, kind, o.source.StreamExpensesByDateRange(ctx, from, to))
	})
}

// RunIncremental resumes a stream strictly after its stored checkpoint
func (o *Orchestrator) RunIncremental(ctx context.Context, kind importsync.StreamKind) (importsync.Stats, error) {
	return o.run(ctx, kind, func(ctx context.Context) (importsync.Stats, error) {
		cursor, err := o.resumeCursor(ctx, kind)
		if err != nil {
			return importsync.Stats{}, err
		}
		if kind == importsync.StreamOrders {
			return o.processOrders(ctx, kind, o.source.StreamOrdersIncremental(ctx, cursor))
		}
		return o.processExpenses(ctx, kind, o.source.StreamExpensesIncremental(ctx, cursor))
	})
}

// RunLastN imports the trailing n days of a stream
func (o *Orchestrator) RunLastN(ctx context.Context, kind importsync.StreamKind, n int) (importsync.Stats, error) {
	if n <= 0 {
		return importsync.Stats{}, shared.ErrInvalidInput
	}
	to := time.Now()
	from := to.AddDate(0, 0, -n)
	return o.RunDateRange(ctx, kind, from, to)
}

// run is the shared skeleton: lock, connectivity gate, stream, checkpoint
func (o *Orchestrator) run(ctx context.Context, kind importsync.StreamKind, process func(ctx context.Context) (importsync.Stats, error)) (importsync.Stats, error) {
	if !kind.IsValid() {
		return importsync.Stats{}, shared.ErrInvalidInput
	}

	release, err := o.locker.Acquire(ctx, kind)
	if err != nil {
		return importsync.Stats{}, err
	}
	defer release()

	if !o.source.TestConnection(ctx) {
		return importsync.Stats{}, shared.ErrConnectivity
	}

	start := time.Now()
	stats, err := process(ctx)

	o.logger.Info("import run finished",
		zap.String("kind", kind.String()),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
		zap.Duration("elapsed", time.Since(start)))
	return stats, err
}

// resumeCursor loads the stored checkpoint; an absent row starts from zero
func (o *Orchestrator) resumeCursor(ctx context.Context, kind importsync.StreamKind) (importsync.Cursor, error) {
	state, err := o.syncStates.Get(ctx, kind)
	if errors.Is(err, shared.ErrNotFound) {
		return importsync.Cursor{}, nil
	}
	if err != nil {
		return importsync.Cursor{}, err
	}
	return importsync.Cursor{Date: state.LastImportedDate, ExternalID: state.LastExternalID}, nil
}

func (o *Orchestrator) processOrders(ctx context.Context, kind importsync.StreamKind, iter importsync.OrderIterator) (importsync.Stats, error) {
	defer iter.Close()

	var stats importsync.Stats
	var last *importsync.Cursor
	sinceCheckpoint := 0

	for {
		// Cooperative cancellation at chunk boundaries only; the chunk in
		// flight always finishes and its checkpoint survives.
		if err := ctx.Err(); err != nil {
			return stats, o.checkpoint(kind, last, err)
		}

		chunk, err := nextOrderChunk(ctx, iter, o.chunkSize)
		if err != nil {
			return stats, o.checkpoint(kind, last, err)
		}
		if len(chunk) == 0 {
			return stats, o.checkpoint(kind, last, nil)
		}

		for _, row := range chunk {
			var outcome importsync.Outcome
			err := o.uow.Execute(ctx, func(ctx context.Context, repos Repos) error {
				svc := NewOrderImportService(repos, o.policy, o.logger)
				var rowErr error
				outcome, rowErr = svc.ImportRow(ctx, row)
				return rowErr
			})
			if err != nil {
				stats.Errors++
				o.logger.Error("order row failed",
					zap.Int64("external_id", row.ExternalID),
					zap.Error(err))
			} else {
				stats.Record(outcome)
			}
			last = &importsync.Cursor{Date: row.Date, ExternalID: row.ExternalID}
			sinceCheckpoint++
			if sinceCheckpoint >= o.checkpointEvery {
				if err := o.checkpoint(kind, last, nil); err != nil {
					return stats, err
				}
				sinceCheckpoint = 0
			}
		}
	}
}

func (o *Orchestrator) processExpenses(ctx context.Context, kind importsync.StreamKind, iter importsync.ExpenseIterator) (importsync.Stats, error) {
	defer iter.Close()

	var stats importsync.Stats
	var last *importsync.Cursor
	sinceCheckpoint := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, o.checkpoint(kind, last, err)
		}

		chunk, err := nextExpenseChunk(ctx, iter, o.chunkSize)
		if err != nil {
			return stats, o.checkpoint(kind, last, err)
		}
		if len(chunk) == 0 {
			return stats, o.checkpoint(kind, last, nil)
		}

		for _, row := range chunk {
			var outcome importsync.Outcome
			err := o.uow.Execute(ctx, func(ctx context.Context, repos Repos) error {
				svc := NewExpenseImportService(repos, o.policy, o.logger)
				var rowErr error
				outcome, rowErr = svc.ImportRow(ctx, row)
				return rowErr
			})
			if err != nil {
				stats.Errors++
				o.logger.Error("expense row failed",
					zap.Int64("external_id", row.ExternalID),
					zap.Error(err))
			} else {
				stats.Record(outcome)
			}
			last = &importsync.Cursor{Date: row.Date, ExternalID: row.ExternalID}
			sinceCheckpoint++
			if sinceCheckpoint >= o.checkpointEvery {
				if err := o.checkpoint(kind, last, nil); err != nil {
					return stats, err
				}
				sinceCheckpoint = 0
			}
		}
	}
}

// checkpoint advances the stored cursor. The advance is detached from the
// run's context so a cancelled run still records the progress it made.
func (o *Orchestrator) checkpoint(kind importsync.StreamKind, last *importsync.Cursor, runErr error) error {
	if last == nil {
		return runErr
	}
	if err := o.syncStates.Advance(context.Background(), kind, last.Date, last.ExternalID); err != nil {
		o.logger.Error("checkpoint advance failed",
			zap.String("kind", kind.String()),
			zap.Error(err))
		if runErr == nil {
			return err
		}
	}
	return runErr
}

func nextOrderChunk(ctx context.Context, iter importsync.OrderIterator, size int) ([]*importsync.OrderRow, error) {
	chunk := make([]*importsync.OrderRow, 0, size)
	for len(chunk) < size {
		row, ok, err := iter.Next(ctx)
		if err != nil {
			return chunk, err
		}
		if !ok {
			break
		}
		chunk = append(chunk, row)
	}
	return chunk, nil
}

func nextExpenseChunk(ctx context.Context, iter importsync.ExpenseIterator, size int) ([]*importsync.ExpenseRow, error) {
	chunk := make([]*importsync.ExpenseRow, 0, size)
	for len(chunk) < size {
		row, ok, err := iter.Next(ctx)
		if err != nil {
			return chunk, err
		}
		if !ok {
			break
		}
		chunk = append(chunk, row)
	}
	return chunk, nil
}
