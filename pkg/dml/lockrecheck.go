package dml

import "context"

// LockAndRecheck implements C4: given a scan-produced candidate pointer, it
// acquires the row's write lock, re-reads the row, and re-evaluates the
// predicate, tolerating concurrent modification between scan and lock.
//
// On success it returns the re-read row and ok=true; the caller now holds
// the row's write lock and is responsible for releasing it (by applying a
// mutation through store, or by calling store.UnlockRow directly).
//
// On ok=false the lock has already been released by this function; the
// caller must simply skip the row.
func LockAndRecheck(ctx context.Context, store RowStore, sess Session, tableName string, ptr RowPointer, plan PlanItem) (Row, bool, error) {
	if err := store.LockRow(ctx, sess, tableName, ptr); err != nil {
		return nil, false, err
	}

	row, ok, err := store.ReadRow(ctx, tableName, ptr)
	if err != nil {
		store.UnlockRow(tableName, ptr)
		return nil, false, err
	}
	if !ok {
		// Deleted concurrently.
		store.UnlockRow(tableName, ptr)
		return nil, false, nil
	}

	if !plan.Matches(row) {
		store.UnlockRow(tableName, ptr)
		return nil, false, nil
	}

	return row, true, nil
}
