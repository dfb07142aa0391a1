package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/kasuganosora/sqlexec/pkg/dml"
)

// BadgerStore is a durable RowStore backed by badger/v4. Row identity is a
// uuid rather than a sequence counter, since the store survives process
// restarts and has no in-memory counter to recover. Locking and trigger
// bookkeeping mirror MemStore; only the row bytes themselves live in
// badger.
type BadgerStore struct {
	db *badger.DB

	mu     sync.RWMutex
	tables map[string]*badgerTableState
}

type badgerTableState struct {
	tableLock sync.RWMutex
	desc      *dml.TableDescriptor

	lockMu   sync.Mutex
	rowLocks map[string]chan struct{}
}

// OpenBadgerStore opens (creating if absent) a badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, tables: make(map[string]*badgerTableState)}, nil
}

// Close releases the underlying badger database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// CreateTable registers a table descriptor for in-memory lock/trigger
// bookkeeping; row bytes are addressed by a "<table>/<uuid>" badger key.
func (b *BadgerStore) CreateTable(desc *dml.TableDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[desc.Name] = &badgerTableState{desc: desc, rowLocks: make(map[string]chan struct{})}
}

func (b *BadgerStore) table(tableName string) (*badgerTableState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ts, ok := b.tables[tableName]
	if !ok {
		return nil, dml.NewErrInternal("unknown table " + tableName)
	}
	return ts, nil
}

func badgerKey(tableName, rowID string) []byte {
	return []byte(tableName + "/" + rowID)
}

func (b *BadgerStore) AddRow(ctx context.Context, tableName string, row dml.Row) (dml.RowPointer, error) {
	if _, err := b.table(tableName); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(tableName, id), payload)
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (b *BadgerStore) RemoveRow(ctx context.Context, tableName string, ptr dml.RowPointer) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(tableName, ptr.(string)))
	})
}

func (b *BadgerStore) UpdateRow(ctx context.Context, tableName string, ptr dml.RowPointer, newRow dml.Row) (dml.RowPointer, error) {
	payload, err := json.Marshal(newRow)
	if err != nil {
		return nil, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(tableName, ptr.(string)), payload)
	})
	if err != nil {
		return nil, err
	}
	return ptr, nil
}

func (b *BadgerStore) ReadRow(ctx context.Context, tableName string, ptr dml.RowPointer) (dml.Row, bool, error) {
	var row dml.Row
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(tableName, ptr.(string)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		return nil, false, nil
	}
	return row, true, nil
}

func (b *BadgerStore) LockRow(ctx context.Context, sess dml.Session, tableName string, ptr dml.RowPointer) error {
	ts, err := b.table(tableName)
	if err != nil {
		return err
	}
	ch := b.lockChannel(ts, ptr.(string))

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

func (b *BadgerStore) lockChannel(ts *badgerTableState, rowID string) chan struct{} {
	ts.lockMu.Lock()
	defer ts.lockMu.Unlock()
	ch, ok := ts.rowLocks[rowID]
	if !ok {
		ch = make(chan struct{}, 1)
		ts.rowLocks[rowID] = ch
	}
	return ch
}

func (b *BadgerStore) UnlockRow(tableName string, ptr dml.RowPointer) {
	ts, err := b.table(tableName)
	if err != nil {
		return
	}
	ts.lockMu.Lock()
	ch, ok := ts.rowLocks[ptr.(string)]
	ts.lockMu.Unlock()
	if !ok {
		return
	}
	select {
	case <-ch:
	default:
	}
}

func (b *BadgerStore) LockTable(ctx context.Context, sess dml.Session, tableName string, mode dml.LockMode) error {
	ts, err := b.table(tableName)
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

func (b *BadgerStore) UnlockTable(tableName string, mode dml.LockMode) {
	ts, err := b.table(tableName)
	if err != nil {
		return
	}
	if mode == dml.LockWrite {
		ts.tableLock.Unlock()
	} else {
		ts.tableLock.RUnlock()
	}
}

func (b *BadgerStore) TableDescriptor(ctx context.Context, tableName string) (*dml.TableDescriptor, error) {
	ts, err := b.table(tableName)
	if err != nil {
		return nil, err
	}
	return ts.desc, nil
}

func (b *BadgerStore) FireStatementTrigger(ctx context.Context, sess dml.Session, tableName string, timing dml.TriggerTiming, action dml.Action) (bool, error) {
	ts, err := b.table(tableName)
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

func (b *BadgerStore) FireRowTrigger(ctx context.Context, sess dml.Session, tableName string, timing dml.TriggerTiming, action dml.Action, oldRow, newRow dml.Row) (bool, error) {
	ts, err := b.table(tableName)
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

var _ dml.RowStore = (*BadgerStore)(nil)
