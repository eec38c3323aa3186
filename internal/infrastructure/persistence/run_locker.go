package persistence

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// runLockNamespace separates import run locks from any other advisory
// lock user on the same database.
const runLockNamespace = int32(0x1337)

// AdvisoryRunLocker serializes import runs per stream kind with Postgres
// advisory locks, so the guarantee holds across processes.
type AdvisoryRunLocker struct {
	db *gorm.DB
}

// NewAdvisoryRunLocker creates a new AdvisoryRunLocker
func NewAdvisoryRunLocker(db *gorm.DB) *AdvisoryRunLocker {
	return &AdvisoryRunLocker{db: db}
}

// Acquire takes the advisory lock for a kind, returning a release func.
// A held lock surfaces ErrRunInProgress without blocking.
func (l *AdvisoryRunLocker) Acquire(ctx context.Context, kind importsync.StreamKind) (func(), error) {
	key := lockKey(kind)

	// The lock is session-scoped, so acquire and release must run on the
	// same connection.
	conn, err := l.db.WithContext(ctx).DB()
	if err != nil {
		return nil, err
	}
	session, err := conn.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var acquired bool
	row := session.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1, $2)", runLockNamespace, key)
	if err := row.Scan(&acquired); err != nil {
		session.Close()
		return nil, err
	}
	if !acquired {
		session.Close()
		return nil, shared.ErrRunInProgress
	}

	release := func() {
		_, _ = session.ExecContext(context.Background(),
			"SELECT pg_advisory_unlock($1, $2)", runLockNamespace, key)
		session.Close()
	}
	return release, nil
}

func lockKey(kind importsync.StreamKind) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kind.String()))
	return int32(h.Sum32())
}

// Ensure AdvisoryRunLocker implements RunLocker
var _ importsync.RunLocker = (*AdvisoryRunLocker)(nil)

// MemoryRunLocker serializes runs within one process. It backs tests and
// sqlite deployments where advisory locks are unavailable.
type MemoryRunLocker struct {
	mu   sync.Mutex
	held map[importsync.StreamKind]bool
}

// NewMemoryRunLocker creates a new MemoryRunLocker
func NewMemoryRunLocker() *MemoryRunLocker {
	return &MemoryRunLocker{held: make(map[importsync.StreamKind]bool)}
}

// Acquire takes the in-process lock for a kind, returning a release func
func (l *MemoryRunLocker) Acquire(_ context.Context, kind importsync.StreamKind) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[kind] {
		return nil, shared.ErrRunInProgress
	}
	l.held[kind] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held[kind] = false
	}, nil
}

// Ensure MemoryRunLocker implements RunLocker
var _ importsync.RunLocker = (*MemoryRunLocker)(nil)
