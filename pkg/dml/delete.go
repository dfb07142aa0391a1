package dml

import "context"

// DeleteStatement is the prepared shape of a DELETE against a single
// table, shared across calls to Update (idempotent per §9's prepare()
// contract — callers should prepare once and reuse).
type DeleteStatement struct {
	TableName string
	Plan      PlanItem
	Fetch     FetchSpec
}

type bufferedRow struct {
	ptr RowPointer
	row Row
}

// ExecuteDelete runs the full DELETE pipeline (C5): statement BEFORE
// trigger, table write-lock escalation, scan+lock+recheck, row BEFORE
// trigger with veto, buffered removal, row AFTER trigger, statement AFTER
// trigger. It returns the number of rows actually removed.
func ExecuteDelete(ctx context.Context, store RowStore, sess Session, stmt *DeleteStatement, collector DeltaChangeCollector, observer WriteObserver) (int64, error) {
	if err := sess.CheckPrivilege("DELETE", stmt.TableName); err != nil {
		return 0, err
	}

	table, err := store.TableDescriptor(ctx, stmt.TableName)
	if err != nil {
		return 0, err
	}

	vetoed, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionDelete)
	if err != nil {
		return 0, err
	}
	if vetoed {
		return 0, nil
	}

	if err := store.LockTable(ctx, sess, stmt.TableName, LockWrite); err != nil {
		return 0, err
	}
	defer store.UnlockTable(stmt.TableName, LockWrite)

	limit, err := resolveFetchLimit(stmt.Fetch)
	if err != nil {
		return 0, err
	}

	scanner := NewScanDriver(stmt.Plan, sess, stmt.TableName)
	var buffer []bufferedRow
	var count int64

	for {
		ptr, ok, err := scanner.NextRow(ctx, limit, count)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}

		row, locked, err := LockAndRecheck(ctx, store, sess, stmt.TableName, ptr, stmt.Plan)
		if err != nil {
			return count, err
		}
		if !locked {
			continue
		}

		if err := collector.Trigger(ctx, ActionDelete, OptionOld, row); err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}

		rowVetoed, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionDelete, row, nil)
		if err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}
		if rowVetoed {
			store.UnlockRow(stmt.TableName, ptr)
			continue
		}

		buffer = append(buffer, bufferedRow{ptr: ptr, row: row})
		count++
	}

	for i, br := range buffer {
		if err := checkCanceled(sess, stmt.TableName, i); err != nil {
			return int64(i), err
		}
		if err := store.RemoveRow(ctx, stmt.TableName, br.ptr); err != nil {
			return int64(i), err
		}
	}

	if hasRowTrigger(table, TriggerAfter, ActionDelete) {
		for i, br := range buffer {
			if err := checkCanceled(sess, stmt.TableName, i); err != nil {
				return count, err
			}
			if _, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionDelete, br.row, nil); err != nil {
				return count, err
			}
		}
	}

	if _, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionDelete); err != nil {
		return count, err
	}

	if observer != nil {
		observer.OnWrite(stmt.TableName, ActionDelete, count)
	}

	return count, nil
}

func hasRowTrigger(table *TableDescriptor, timing TriggerTiming, action Action) bool {
	for _, t := range table.RowTriggers {
		if t.Timing == timing && t.Action == action {
			return true
		}
	}
	return false
}
