package dml

import "context"

// cancelPollInterval is how many scanned rows pass between cancellation
// checks, matching the spec's "every 127 rows" during the scan phase.
const cancelPollInterval = 127

// postScanPollInterval governs the coarser post-scan iteration phases
// (buffer flush, AFTER row trigger rescan), checked every 128 rows.
const postScanPollInterval = 128

// ScanDriver drives a PlanItem with a fetch-limit and periodic
// cancellation checks (C3).
type ScanDriver struct {
	plan      PlanItem
	sess      Session
	tableName string
	seen      int64
}

// NewScanDriver builds a scan driver over plan for the named table.
func NewScanDriver(plan PlanItem, sess Session, tableName string) *ScanDriver {
	return &ScanDriver{plan: plan, sess: sess, tableName: tableName}
}

// NextRow advances the cursor. It halts returning (nil, false, nil) when
// the source is exhausted or countSoFar has reached limit (limit < 0 means
// unlimited). Every cancelPollInterval rows it checks the session's
// cancellation flag and raises ErrCanceled if set.
func (d *ScanDriver) NextRow(ctx context.Context, limit, countSoFar int64) (RowPointer, bool, error) {
	if limit >= 0 && countSoFar >= limit {
		return nil, false, nil
	}

	d.seen++
	if d.seen%cancelPollInterval == 0 && d.sess.Canceled() {
		return nil, false, NewErrCanceled(d.tableName)
	}

	ptr, ok, err := d.plan.Next(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return ptr, true, nil
}

// checkCanceled is used by post-scan iteration phases (buffer flush, AFTER
// row rescans) which poll every postScanPollInterval entries instead of
// riding the scan driver's own counter.
func checkCanceled(sess Session, tableName string, index int) error {
	if index%postScanPollInterval == 0 && sess.Canceled() {
		return NewErrCanceled(tableName)
	}
	return nil
}
