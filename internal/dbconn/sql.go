package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// savepoint names become SQL identifiers, so keep them boring.
var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Pool adapts a *sql.DB to the Source interface.
type Pool struct {
	db *sql.DB
}

// NewPool wraps an open *sql.DB. The caller keeps ownership of the DB
// handle and closes it on shutdown.
func NewPool(db *sql.DB) *Pool {
	return &Pool{db: db}
}

// Acquire checks a dedicated connection out of the pool with autocommit
// enabled, matching the state a fresh JDBC connection starts in.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	return &sqlConn{conn: c, autocommit: true}, nil
}

type sqlConn struct {
	conn       *sql.Conn
	tx         *sql.Tx
	autocommit bool
}

type sqlSavepoint struct {
	name string
}

func (s sqlSavepoint) Name() string {
	return s.name
}

func (c *sqlConn) Autocommit() bool {
	return c.autocommit
}

func (c *sqlConn) SetAutocommit(ctx context.Context, on bool) error {
	if on && c.tx != nil {
		// JDBC semantics: enabling autocommit commits pending work.
		if err := c.tx.Commit(); err != nil {
			return fmt.Errorf("committing open transaction: %w", err)
		}

		c.tx = nil
	}

	c.autocommit = on

	return nil
}

// begin lazily opens a transaction. database/sql has no session-level
// autocommit toggle, so the first statement after disabling autocommit
// (or after a commit) starts the next transaction.
func (c *sqlConn) begin(ctx context.Context) (*sql.Tx, error) {
	if c.tx != nil {
		return c.tx, nil
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	c.tx = tx

	return tx, nil
}

func (c *sqlConn) Savepoint(ctx context.Context, name string) (Savepoint, error) {
	if !savepointName.MatchString(name) {
		return nil, fmt.Errorf("invalid savepoint name %q", name)
	}

	if c.autocommit {
		return nil, fmt.Errorf("savepoint %q requires autocommit off", name)
	}

	tx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, fmt.Errorf("creating savepoint %q: %w", name, err)
	}

	return sqlSavepoint{name: name}, nil
}

func (c *sqlConn) ExecBatch(ctx context.Context, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	var (
		stmt *sql.Stmt
		err  error
	)

	if c.autocommit {
		stmt, err = c.conn.PrepareContext(ctx, query)
	} else {
		var tx *sql.Tx

		tx, err = c.begin(ctx)
		if err != nil {
			return err
		}

		stmt, err = tx.PrepareContext(ctx, query)
	}

	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}

	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("executing batch row: %w", err)
		}
	}

	return nil
}

func (c *sqlConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	if err := c.tx.Commit(); err != nil {
		return err
	}

	c.tx = nil

	return nil
}

func (c *sqlConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}

	if err := c.tx.Rollback(); err != nil {
		return err
	}

	c.tx = nil

	return nil
}

func (c *sqlConn) RollbackTo(ctx context.Context, sp Savepoint) error {
	if c.tx == nil {
		return fmt.Errorf("no open transaction for savepoint %q", sp.Name())
	}

	if !savepointName.MatchString(sp.Name()) {
		return fmt.Errorf("invalid savepoint name %q", sp.Name())
	}

	// Transaction stays open; work staged before the savepoint survives.
	if _, err := c.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp.Name()); err != nil {
		return fmt.Errorf("rolling back to savepoint %q: %w", sp.Name(), err)
	}

	return nil
}

func (c *sqlConn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}

	return c.conn.Close()
}
