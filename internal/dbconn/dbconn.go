// Package dbconn abstracts the relational sink behind a small
// connection interface with JDBC-style autocommit semantics, so the
// reporter's transaction handling can be exercised against fakes and
// the real database/sql adapter alike.
package dbconn

import "context"

// Savepoint marks a partial-write checkpoint inside an open transaction.
type Savepoint interface {
	Name() string
}

// Conn is a single database connection, exclusively owned by one report
// cycle for its full duration.
//
// Autocommit follows the JDBC model: while autocommit is disabled,
// statements accumulate in an open transaction until Commit or Rollback.
// Re-enabling autocommit while a transaction is open commits it.
type Conn interface {
	// Autocommit reports the current autocommit setting.
	Autocommit() bool

	// SetAutocommit changes the autocommit setting. Enabling it while a
	// transaction is open commits the pending work.
	SetAutocommit(ctx context.Context, on bool) error

	// Savepoint establishes a named checkpoint in the open transaction.
	Savepoint(ctx context.Context, name string) (Savepoint, error)

	// ExecBatch executes one parameterized statement once per row. A
	// zero-row batch is a no-op and never an error.
	ExecBatch(ctx context.Context, query string, rows [][]any) error

	// Commit commits the open transaction. With no transaction open it
	// is a no-op.
	Commit(ctx context.Context) error

	// Rollback discards the open transaction.
	Rollback(ctx context.Context) error

	// RollbackTo rewinds the open transaction to sp, keeping work staged
	// before the checkpoint.
	RollbackTo(ctx context.Context, sp Savepoint) error

	// Close releases the connection back to its source. An open
	// transaction is rolled back first.
	Close() error
}

// Source allocates connections. Implementations must be safe for
// concurrent use; the reporter acquires at most one connection at a time.
type Source interface {
	Acquire(ctx context.Context) (Conn, error)
}
