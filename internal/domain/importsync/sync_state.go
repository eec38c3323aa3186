// Package importsync contains the contracts of the import pipeline: the
// external source port, sync-state checkpoints, run statistics and the
// reference-handling policy.
package importsync

import (
	"context"
	"time"
)

// StreamKind names one importable external stream
type StreamKind string

const (
	StreamOrders   StreamKind = "orders"
	StreamExpenses StreamKind = "expenses"
)

// IsValid returns true for a known stream kind
func (k StreamKind) IsValid() bool {
	return k == StreamOrders || k == StreamExpenses
}

// String returns the string representation of StreamKind
func (k StreamKind) String() string {
	return string(k)
}

// SyncState is the durable per-stream checkpoint: everything up to
// (LastImportedDate, LastExternalID) has been imported.
type SyncState struct {
	Kind             StreamKind
	LastImportedDate time.Time
	LastExternalID   int64
	LastSyncAt       time.Time
}

// IsAfter reports whether the (date, id) cursor lies strictly after the
// checkpoint. The comparison matches the source's keyset ordering.
func (s *SyncState) IsAfter(date time.Time, externalID int64) bool {
	if date.After(s.LastImportedDate) {
		return true
	}
	return date.Equal(s.LastImportedDate) && externalID > s.LastExternalID
}

// SyncStateRepository persists checkpoints. Advance is transactional and
// monotonic: a checkpoint never moves backward.
type SyncStateRepository interface {
	Get(ctx context.Context, kind StreamKind) (*SyncState, error)
	Advance(ctx context.Context, kind StreamKind, date time.Time, externalID int64) error
}

// RunLocker serializes orchestrator runs per stream kind so interleaved
// checkpoint advancement from two runs cannot corrupt the resume cursor.
type RunLocker interface {
	// Acquire takes the run lock for a kind, returning a release func.
	// A held lock surfaces ErrRunInProgress.
	Acquire(ctx context.Context, kind StreamKind) (release func(), err error)
}
