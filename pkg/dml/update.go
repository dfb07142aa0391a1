package dml

import "context"

// SetAssignment is one `column = expr` pair of an UPDATE's SET clause.
type SetAssignment struct {
	Ordinal int
	Expr    interface{}
}

// ConstraintChecker validates a candidate new row against the table's
// NOT NULL / CHECK / DOMAIN / type constraints. A non-nil error should be
// an *ErrIntegrityViolation (or wrap one).
type ConstraintChecker func(ctx context.Context, table *TableDescriptor, newRow Row) error

// UpdateStatement is the prepared shape of an UPDATE against a single
// table.
type UpdateStatement struct {
	TableName   string
	Plan        PlanItem
	Fetch       FetchSpec
	Assignments []SetAssignment
	Engine      ExpressionEngine
	Validate    ConstraintChecker

	// OnDuplicateKeyFallback marks this UPDATE as the fallback path of an
	// INSERT ... ON DUPLICATE KEY / MERGE. In that mode a constraint
	// violation during SET-clause preparation is converted into a per-row
	// skip instead of aborting the statement.
	OnDuplicateKeyFallback bool
}

type bufferedUpdate struct {
	ptr       RowPointer
	old, new_ Row
}

// applySetClause evaluates every assignment against old, producing a new
// row buffer. Assignments may reference previously-assigned New columns of
// the same row (e.g. SET a = a, b = a + 1 sees the original a).
func applySetClause(ctx context.Context, engine ExpressionEngine, assignments []SetAssignment, old Row) (Row, error) {
	newRow := old.Clone()
	cursor := simpleRowCursor(old, newRow)
	for _, asn := range assignments {
		v, err := engine.Evaluate(ctx, asn.Expr, cursor)
		if err != nil {
			return nil, err
		}
		if asn.Ordinal < 0 || asn.Ordinal >= len(newRow) {
			return nil, NewErrColumnNotFound("", "")
		}
		newRow[asn.Ordinal] = v
	}
	return newRow, nil
}

// ExecuteUpdate runs the full UPDATE pipeline (C6): same shell as DELETE,
// computing a new row per candidate via the SET-clause engine, applying
// the no-op optimization, enforcing constraints (with ON DUPLICATE KEY
// fallback skip), and emitting OLD/NEW during the scan and FINAL during
// the flush phase.
func ExecuteUpdate(ctx context.Context, store RowStore, sess Session, stmt *UpdateStatement, collector DeltaChangeCollector, observer WriteObserver) (int64, error) {
	if err := sess.CheckPrivilege("UPDATE", stmt.TableName); err != nil {
		return 0, err
	}

	table, err := store.TableDescriptor(ctx, stmt.TableName)
	if err != nil {
		return 0, err
	}

	vetoed, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionUpdate)
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
	var buffer []bufferedUpdate
	var count int64

	for {
		ptr, ok, err := scanner.NextRow(ctx, limit, count)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}

		oldRow, locked, err := LockAndRecheck(ctx, store, sess, stmt.TableName, ptr, stmt.Plan)
		if err != nil {
			return count, err
		}
		if !locked {
			continue
		}

		newRow, err := applySetClause(ctx, stmt.Engine, stmt.Assignments, oldRow)
		if err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}

		if stmt.Validate != nil {
			if verr := stmt.Validate(ctx, table, newRow); verr != nil {
				store.UnlockRow(stmt.TableName, ptr)
				if stmt.OnDuplicateKeyFallback {
					continue
				}
				return count, verr
			}
		}

		if newRow.Equal(oldRow) {
			// No-op optimization: no events, no count, lock released.
			store.UnlockRow(stmt.TableName, ptr)
			continue
		}

		if err := collector.Trigger(ctx, ActionUpdate, OptionOld, oldRow); err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}
		if err := collector.Trigger(ctx, ActionUpdate, OptionNew, newRow); err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}

		rowVetoed, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionUpdate, oldRow, newRow)
		if err != nil {
			store.UnlockRow(stmt.TableName, ptr)
			return count, err
		}
		if rowVetoed {
			store.UnlockRow(stmt.TableName, ptr)
			continue
		}

		buffer = append(buffer, bufferedUpdate{ptr: ptr, old: oldRow, new_: newRow})
		count++
	}

	for i, bu := range buffer {
		if err := checkCanceled(sess, stmt.TableName, i); err != nil {
			return int64(i), err
		}
		if _, err := store.UpdateRow(ctx, stmt.TableName, bu.ptr, bu.new_); err != nil {
			return int64(i), err
		}
		if err := collector.Trigger(ctx, ActionUpdate, OptionFinal, bu.new_); err != nil {
			return int64(i), err
		}
	}

	if hasRowTrigger(table, TriggerAfter, ActionUpdate) {
		for i, bu := range buffer {
			if err := checkCanceled(sess, stmt.TableName, i); err != nil {
				return count, err
			}
			if _, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionUpdate, bu.old, bu.new_); err != nil {
				return count, err
			}
		}
	}

	if _, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionUpdate); err != nil {
		return count, err
	}

	if observer != nil {
		observer.OnWrite(stmt.TableName, ActionUpdate, count)
	}

	return count, nil
}
