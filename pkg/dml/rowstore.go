package dml

import "context"

// RowStore is the external collaborator owning physical row storage,
// locking, and trigger firing. Implementations live outside this package
// (see pkg/dml/store for two reference adapters); the executors in this
// package only ever see this interface.
type RowStore interface {
	// AddRow inserts row into tableName and returns its new pointer.
	// ErrIntegrityViolation on constraint failure.
	AddRow(ctx context.Context, tableName string, row Row) (RowPointer, error)
	// RemoveRow deletes the row named by ptr.
	RemoveRow(ctx context.Context, tableName string, ptr RowPointer) error
	// UpdateRow replaces the row named by ptr with newRow, returning the
	// (possibly new) pointer. ErrIntegrityViolation on constraint failure.
	UpdateRow(ctx context.Context, tableName string, ptr RowPointer, newRow Row) (RowPointer, error)

	// LockRow acquires ptr's write lock, blocking up to the session's lock
	// timeout. ErrLockTimeout on expiry.
	LockRow(ctx context.Context, sess Session, tableName string, ptr RowPointer) error
	// UnlockRow releases a lock acquired by LockRow without applying any
	// change.
	UnlockRow(tableName string, ptr RowPointer)
	// ReadRow re-reads the current value at ptr. ok=false means the row has
	// been deleted by a concurrent transaction.
	ReadRow(ctx context.Context, tableName string, ptr RowPointer) (row Row, ok bool, err error)

	// LockTable escalates (or acquires) the table-level lock in the given
	// mode, blocking up to the session's lock timeout.
	LockTable(ctx context.Context, sess Session, tableName string, mode LockMode) error
	// UnlockTable releases a table-level lock acquired by LockTable.
	UnlockTable(tableName string, mode LockMode)

	// TableDescriptor returns the table's column/trigger metadata.
	TableDescriptor(ctx context.Context, tableName string) (*TableDescriptor, error)

	// FireStatementTrigger runs every statement trigger of the given
	// timing/action registered on tableName. vetoed is only meaningful for
	// BEFORE.
	FireStatementTrigger(ctx context.Context, sess Session, tableName string, timing TriggerTiming, action Action) (vetoed bool, err error)
	// FireRowTrigger runs every row trigger of the given timing/action
	// whose FiresRow predicate (if any) matches oldRow/newRow. For BEFORE
	// UPDATE/INSERT, newRow may be mutated in place.
	FireRowTrigger(ctx context.Context, sess Session, tableName string, timing TriggerTiming, action Action, oldRow, newRow Row) (vetoed bool, err error)
}

// WriteObserver is an optional collaborator notified once per statement
// after its AFTER statement trigger fires, so that out-of-band subsystems
// (e.g. an incremental statistics collector) can react to write volume
// without this package depending on them.
type WriteObserver interface {
	OnWrite(tableName string, action Action, rowCount int64)
}
