package reporter

import "fmt"

// WriteError reports a failed batch write for one metric family. The
// underlying database error is preserved for errors.Is/As.
type WriteError struct {
	// Family is the metric family whose batch failed.
	Family string

	// Partial is true when the transaction was rolled back to a
	// savepoint established before the failing family, leaving earlier
	// families in the cycle staged for the finalization commit.
	Partial bool

	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s batch: %v", e.Family, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CommitError reports a commit that failed after every family write
// succeeded. It is distinct from WriteError so callers can tell a
// failed flush from a failed write; the reporter never retries it.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing metrics transaction: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
