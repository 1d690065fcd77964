package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/ethpandaops/sqlsink/internal/dbconn"
)

// Report writes one snapshot as a single transaction: acquire a
// connection, disable autocommit, write the five families in fixed
// order, then commit or recover. Finalization always runs: the prior
// autocommit setting is restored (which commits any transaction a
// savepoint rollback left open) and the connection is released per
// policy. Failures propagate to the caller after finalization; the
// scheduler decides what to do with them.
func (r *Reporter) Report(ctx context.Context, snap Snapshot) error {
	started := time.Now()

	// Input timestamps are epoch milliseconds; rows carry epoch seconds.
	ts := r.clock.Now().UnixMilli() / 1000

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		r.observeError("acquire")

		return fmt.Errorf("acquiring connection: %w", err)
	}

	prior := conn.Autocommit()

	defer func() {
		// Cleanup must run even when the cycle's context was cancelled
		// mid-write.
		fctx := context.WithoutCancel(ctx)

		if rerr := conn.SetAutocommit(fctx, prior); rerr != nil {
			r.log.WithError(rerr).
				Error("Unable to restore autocommit to original value")
		}

		if r.cfg.CloseOnComplete {
			if cerr := conn.Close(); cerr != nil {
				r.log.WithError(cerr).Error("Unable to close connection")
			}
		}
	}()

	if err := conn.SetAutocommit(ctx, false); err != nil {
		r.observeError("acquire")

		return fmt.Errorf("disabling autocommit: %w", err)
	}

	enc := &encodeContext{
		timestamp: ts,
		filter:    r.filter,
		conv:      r.conv,
	}

	for _, fam := range familyEncoders {
		var sp dbconn.Savepoint

		if r.cfg.SavepointPerFamily {
			sp, err = conn.Savepoint(ctx, "sp_"+fam.family)
			if err != nil {
				return r.recover(ctx, conn, fam.family, nil, err)
			}
		}

		rows := fam.rows(enc, snap)

		stmt := fam.insertStatement(r.cfg, r.cfg.Placeholders)
		if err := conn.ExecBatch(ctx, stmt, rows); err != nil {
			return r.recover(ctx, conn, fam.family, sp, err)
		}

		if r.health != nil {
			r.health.RowsWritten.WithLabelValues(fam.family).
				Add(float64(len(rows)))
		}

		r.log.WithFields(map[string]any{
			"family": fam.family,
			"rows":   len(rows),
		}).Debug("Family batch written")
	}

	if err := conn.Commit(ctx); err != nil {
		r.observeError("commit")

		return &CommitError{Err: err}
	}

	if r.health != nil {
		r.health.ReportCycles.Inc()
		r.health.CycleDuration.Observe(time.Since(started).Seconds())
		r.health.LastReportTimestamp.Set(float64(ts))
	}

	r.log.WithField("timestamp", ts).Debug("Report cycle committed")

	return nil
}

// recover runs the failure branch for a family write: full rollback,
// savepoint rollback, or the commit-what-we-have path when rollback is
// disabled. The original cause is always re-raised, wrapped in a
// WriteError; secondary rollback/commit failures are logged, never
// allowed to mask it.
func (r *Reporter) recover(
	ctx context.Context,
	conn dbconn.Conn,
	family string,
	sp dbconn.Savepoint,
	cause error,
) error {
	r.observeError("write")

	werr := &WriteError{
		Family:  family,
		Partial: sp != nil && r.cfg.RollbackOnError,
		Err:     cause,
	}

	if !r.cfg.RollbackOnError {
		if cerr := conn.Commit(ctx); cerr != nil {
			r.log.WithError(cerr).
				Error("Unable to commit partially written cycle")
		}

		return werr
	}

	if sp != nil {
		r.log.WithField("savepoint", sp.Name()).
			Debug("Rolling back to savepoint")

		if rerr := conn.RollbackTo(ctx, sp); rerr != nil {
			r.log.WithError(rerr).Error("Unable to roll back to savepoint")
		}

		r.observeRollback("savepoint")
	} else {
		r.log.Debug("Rolling back transaction")

		if rerr := conn.Rollback(ctx); rerr != nil {
			r.log.WithError(rerr).Error("Unable to roll back transaction")
		}

		r.observeRollback("full")
	}

	return werr
}

func (r *Reporter) observeError(kind string) {
	if r.health != nil {
		r.health.ReportErrors.WithLabelValues(kind).Inc()
	}
}

func (r *Reporter) observeRollback(mode string) {
	if r.health != nil {
		r.health.Rollbacks.WithLabelValues(mode).Inc()
	}
}
