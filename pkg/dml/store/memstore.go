// Package store provides reference RowStore implementations consumed by
// pkg/dml's executors: an in-memory adapter for tests and small tables,
// and a durable badger-backed adapter.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/kasuganosora/sqlexec/pkg/dml"
)

// rowPtr is the concrete RowPointer this store issues: a synthetic,
// monotonically increasing identifier, stable for the row's lifetime.
type rowPtr int64

type tableState struct {
	// tableLock is the statement-level READ/WRITE lock requested through
	// LockTable; held for the duration of a whole statement.
	tableLock sync.RWMutex

	// dataMu guards rows/nextID/rowLocks bookkeeping. It is always held
	// only briefly (never across a blocking row-lock wait), mirroring the
	// global-then-table lock-ordering discipline of a copy-on-write MVCC
	// table version map: acquire dataMu, mutate the maps, release.
	dataMu   sync.Mutex
	desc     *dml.TableDescriptor
	rows     map[rowPtr]dml.Row
	nextID   int64
	rowLocks map[rowPtr]chan struct{}
}

func newTableState(desc *dml.TableDescriptor) *tableState {
	return &tableState{
		desc:     desc,
		rows:     make(map[rowPtr]dml.Row),
		rowLocks: make(map[rowPtr]chan struct{}),
	}
}

// MemStore is an in-process RowStore keyed by table name, guarded by a
// global lock for table lookup and a per-table lock for row access —
// global lock released before any row-level work, so one slow statement on
// table A never blocks lookups against table B.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string]*tableState
}

// NewMemStore builds an empty store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string]*tableState)}
}

// CreateTable registers a table descriptor. Re-registering a table resets
// its rows.
func (m *MemStore) CreateTable(desc *dml.TableDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[desc.Name] = newTableState(desc)
}

func (m *MemStore) table(tableName string) (*tableState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.tables[tableName]
	if !ok {
		return nil, dml.NewErrInternal("unknown table " + tableName)
	}
	return ts, nil
}

// SeedRow inserts a row directly (bypassing triggers/locking), for test
// fixtures.
func (m *MemStore) SeedRow(tableName string, row dml.Row) (dml.RowPointer, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	ts.nextID++
	ptr := rowPtr(ts.nextID)
	ts.rows[ptr] = row.Clone()
	return ptr, nil
}

func (m *MemStore) AddRow(ctx context.Context, tableName string, row dml.Row) (dml.RowPointer, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	if err := m.checkUnique(ts, row, nil); err != nil {
		return nil, err
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	ts.nextID++
	ptr := rowPtr(ts.nextID)
	ts.rows[ptr] = row.Clone()
	return ptr, nil
}

func (m *MemStore) RemoveRow(ctx context.Context, tableName string, ptr dml.RowPointer) error {
	ts, err := m.table(tableName)
	if err != nil {
		return err
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	delete(ts.rows, ptr.(rowPtr))
	delete(ts.rowLocks, ptr.(rowPtr))
	return nil
}

func (m *MemStore) UpdateRow(ctx context.Context, tableName string, ptr dml.RowPointer, newRow dml.Row) (dml.RowPointer, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	if err := m.checkUnique(ts, newRow, ptr); err != nil {
		return nil, err
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	ts.rows[ptr.(rowPtr)] = newRow.Clone()
	return ptr, nil
}

// checkUnique enforces any column flagged as part of the primary key is
// unique, matching the single/composite-key duplicate check the host
// engine's in-memory data source performs before committing a row.
func (m *MemStore) checkUnique(ts *tableState, row dml.Row, except dml.RowPointer) error {
	if len(ts.desc.PrimaryKey) == 0 {
		return nil
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	for ptr, existing := range ts.rows {
		if except != nil && ptr == except.(rowPtr) {
			continue
		}
		if sameKey(ts.desc.PrimaryKey, existing, row) {
			return dml.NewErrIntegrityViolation("PRIMARY", "duplicate primary key value")
		}
	}
	return nil
}

func sameKey(keyOrdinals []int, a, b dml.Row) bool {
	for _, ord := range keyOrdinals {
		if ord >= len(a) || ord >= len(b) || a[ord] != b[ord] {
			return false
		}
	}
	return true
}

func (m *MemStore) ReadRow(ctx context.Context, tableName string, ptr dml.RowPointer) (dml.Row, bool, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return nil, false, err
	}
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	row, ok := ts.rows[ptr.(rowPtr)]
	if !ok {
		return nil, false, nil
	}
	return row.Clone(), true, nil
}

func (m *MemStore) LockRow(ctx context.Context, sess dml.Session, tableName string, ptr dml.RowPointer) error {
	ts, err := m.table(tableName)
	if err != nil {
		return err
	}
	ch := m.lockChannel(ts, ptr.(rowPtr))

	enabled, deadline := sess.LockTimeout()
	var timeoutCh <-chan struct{}
	if enabled {
		timeoutCh = deadline()
	}

	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-timeoutCh:
		return dml.NewErrLockTimeout(tableName, "session lock timeout")
	case <-ctx.Done():
		return dml.NewErrLockTimeout(tableName, ctx.Err().Error())
	}
}

func (m *MemStore) lockChannel(ts *tableState, ptr rowPtr) chan struct{} {
	ts.dataMu.Lock()
	defer ts.dataMu.Unlock()
	ch, ok := ts.rowLocks[ptr]
	if !ok {
		ch = make(chan struct{}, 1)
		ts.rowLocks[ptr] = ch
	}
	return ch
}

func (m *MemStore) UnlockRow(tableName string, ptr dml.RowPointer) {
	ts, err := m.table(tableName)
	if err != nil {
		return
	}
	ts.dataMu.Lock()
	ch, ok := ts.rowLocks[ptr.(rowPtr)]
	ts.dataMu.Unlock()
	if !ok {
		return
	}
	select {
	case <-ch:
	default:
	}
}

func (m *MemStore) LockTable(ctx context.Context, sess dml.Session, tableName string, mode dml.LockMode) error {
	ts, err := m.table(tableName)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		if mode == dml.LockWrite {
			ts.tableLock.Lock()
		} else {
			ts.tableLock.RLock()
		}
		close(done)
	}()

	enabled, deadline := sess.LockTimeout()
	var timeoutCh <-chan struct{}
	if enabled {
		timeoutCh = deadline()
	}

	select {
	case <-done:
		return nil
	case <-timeoutCh:
		return dml.NewErrLockTimeout(tableName, "table lock timeout")
	case <-ctx.Done():
		return dml.NewErrLockTimeout(tableName, ctx.Err().Error())
	}
}

func (m *MemStore) UnlockTable(tableName string, mode dml.LockMode) {
	ts, err := m.table(tableName)
	if err != nil {
		return
	}
	if mode == dml.LockWrite {
		ts.tableLock.Unlock()
	} else {
		ts.tableLock.RUnlock()
	}
}

func (m *MemStore) TableDescriptor(ctx context.Context, tableName string) (*dml.TableDescriptor, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	return ts.desc, nil
}

func (m *MemStore) FireStatementTrigger(ctx context.Context, sess dml.Session, tableName string, timing dml.TriggerTiming, action dml.Action) (bool, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return false, err
	}
	for _, t := range ts.desc.StatementTriggers {
		if t.Timing != timing || t.Action != action {
			continue
		}
		vetoed, err := t.Fire(ctx, sess)
		if err != nil || vetoed {
			return vetoed, err
		}
	}
	return false, nil
}

func (m *MemStore) FireRowTrigger(ctx context.Context, sess dml.Session, tableName string, timing dml.TriggerTiming, action dml.Action, oldRow, newRow dml.Row) (bool, error) {
	ts, err := m.table(tableName)
	if err != nil {
		return false, err
	}
	for _, t := range ts.desc.RowTriggers {
		if t.Timing != timing || t.Action != action {
			continue
		}
		if ts.desc.FiresRow != nil {
			subject := newRow
			if subject == nil {
				subject = oldRow
			}
			if !ts.desc.FiresRow(subject) {
				continue
			}
		}
		vetoed, err := t.Fire(ctx, sess, oldRow, newRow)
		if err != nil || vetoed {
			return vetoed, err
		}
	}
	return false, nil
}

var _ dml.RowStore = (*MemStore)(nil)

// lockTimeoutChannel is a small helper Session implementations can reuse to
// build the channel LockTimeout returns: it fires once after d elapses.
func lockTimeoutChannel(d time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		time.Sleep(d)
		close(ch)
	}()
	return ch
}
