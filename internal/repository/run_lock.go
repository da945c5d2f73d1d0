package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// retentionLockKey identifies the retention run in pg_advisory_lock.
const retentionLockKey int64 = 0x63696e6573776570

// RunLock is a session-level Postgres advisory lock held on a dedicated
// connection for the length of a run.
type RunLock struct {
	db *sql.DB
}

func NewRunLock(db *sql.DB) *RunLock {
	return &RunLock{db: db}
}

func (l *RunLock) TryLock(ctx context.Context) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reserve connection: %w", err)
	}
	var got bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, retentionLockKey).Scan(&got); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !got {
		conn.Close()
		return nil, false, nil
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, retentionLockKey)
		conn.Close()
	}, true, nil
}
