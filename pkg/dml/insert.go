package dml

import "context"

// SourceRowProvider produces the rows an INSERT/MERGE statement writes,
// either eagerly from a VALUES list or streamed from a sub-query.
type SourceRowProvider interface {
	Next(ctx context.Context) (Row, bool, error)
}

// DefaultExpander fills in column defaults (constant or evaluated) for
// columns the source row left unset.
type DefaultExpander func(ctx context.Context, table *TableDescriptor, row Row) (Row, error)

// IdentityAssigner assigns an identity value (from a sequence or
// equivalent) to identity columns the source row left unset.
type IdentityAssigner func(ctx context.Context, table *TableDescriptor, row Row) (Row, error)

// DuplicateKeyHandler is consulted before a source row is inserted when the
// statement is MERGE/ON DUPLICATE KEY; it must probe for a row already
// conflicting with row's unique key and, if found, run the UPDATE path (C6)
// against it instead. updated=false means no conflicting row exists, so
// ExecuteInsert proceeds with a normal INSERT for this row.
type DuplicateKeyHandler func(ctx context.Context, row Row) (updated bool, err error)

// InsertStatement is the prepared shape of an INSERT or MERGE against a
// single table.
type InsertStatement struct {
	TableName       string
	Source          SourceRowProvider
	ExpandDefaults  DefaultExpander
	AssignIdentity  IdentityAssigner
	OnDuplicateKey  DuplicateKeyHandler // nil for a plain INSERT
}

// ExecuteInsert runs the INSERT/MERGE pipeline (C7): for each source row,
// expand defaults, assign identity, then — when the statement carries
// OnDuplicateKey — probe for a conflicting row and delegate to the UPDATE
// path (C6) before any INSERT event is observed. Only when no conflict is
// found does the row proceed through the INSERT event sequence: the NEW
// event, the BEFORE row trigger (veto skips the row without counting it),
// adding the row to the store, the FINAL event, then the AFTER row trigger.
// This keeps each source row's collector sequence to exactly one event
// family, either {INSERT,NEW/FINAL} or the delegated {UPDATE,OLD/NEW/FINAL}
// — never both.
func ExecuteInsert(ctx context.Context, store RowStore, sess Session, stmt *InsertStatement, collector DeltaChangeCollector, observer WriteObserver) (int64, error) {
	if err := sess.CheckPrivilege("INSERT", stmt.TableName); err != nil {
		return 0, err
	}

	table, err := store.TableDescriptor(ctx, stmt.TableName)
	if err != nil {
		return 0, err
	}

	vetoed, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionInsert)
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

	var count int64
	afterRow := hasRowTrigger(table, TriggerAfter, ActionInsert)

	for i := 0; ; i++ {
		if err := checkCanceled(sess, stmt.TableName, i); err != nil {
			return count, err
		}

		row, ok, err := stmt.Source.Next(ctx)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}

		if stmt.ExpandDefaults != nil {
			row, err = stmt.ExpandDefaults(ctx, table, row)
			if err != nil {
				return count, err
			}
		}
		if stmt.AssignIdentity != nil {
			row, err = stmt.AssignIdentity(ctx, table, row)
			if err != nil {
				return count, err
			}
		}

		if stmt.OnDuplicateKey != nil {
			updated, mergeErr := stmt.OnDuplicateKey(ctx, row)
			if mergeErr != nil {
				return count, mergeErr
			}
			if updated {
				count++
				continue
			}
		}

		if err := collector.Trigger(ctx, ActionInsert, OptionNew, row); err != nil {
			return count, err
		}

		rowVetoed, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerBefore, ActionInsert, nil, row)
		if err != nil {
			return count, err
		}
		if rowVetoed {
			continue
		}

		if _, addErr := store.AddRow(ctx, stmt.TableName, row); addErr != nil {
			return count, addErr
		}

		if err := collector.Trigger(ctx, ActionInsert, OptionFinal, row); err != nil {
			return count, err
		}

		if afterRow {
			if _, err := store.FireRowTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionInsert, nil, row); err != nil {
				return count, err
			}
		}

		count++
	}

	if _, err := store.FireStatementTrigger(ctx, sess, stmt.TableName, TriggerAfter, ActionInsert); err != nil {
		return count, err
	}

	if observer != nil {
		observer.OnWrite(stmt.TableName, ActionInsert, count)
	}

	return count, nil
}
