package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/sqlexec/pkg/dml"
	"github.com/kasuganosora/sqlexec/pkg/dml/store"
)

type noTimeoutSession struct{}

func (noTimeoutSession) Canceled() bool                         { return false }
func (noTimeoutSession) LockTimeout() (bool, func() <-chan struct{}) { return false, nil }
func (noTimeoutSession) SetLastIdentity(dml.Value)              {}
func (noTimeoutSession) CheckPrivilege(string, string) error    { return nil }
func (noTimeoutSession) TakeInsertedIdentity() bool             { return false }
func (noTimeoutSession) DatabaseToUpper() bool                  { return false }
func (noTimeoutSession) DatabaseToLower() bool                  { return false }

type shortTimeoutSession struct{ d time.Duration }

func (shortTimeoutSession) Canceled() bool                      { return false }
func (s shortTimeoutSession) LockTimeout() (bool, func() <-chan struct{}) {
	return true, func() <-chan struct{} {
		ch := make(chan struct{})
		go func() {
			time.Sleep(s.d)
			close(ch)
		}()
		return ch
	}
}
func (shortTimeoutSession) SetLastIdentity(dml.Value)           {}
func (shortTimeoutSession) CheckPrivilege(string, string) error { return nil }
func (shortTimeoutSession) TakeInsertedIdentity() bool          { return false }
func (shortTimeoutSession) DatabaseToUpper() bool                { return false }
func (shortTimeoutSession) DatabaseToLower() bool                { return false }

func testTable() *dml.TableDescriptor {
	return &dml.TableDescriptor{
		Name:        "T",
		Columns:     []dml.ColumnDescriptor{{Name: "a", Ordinal: 0}},
		PrimaryKey:  []int{0},
		IdentityCol: -1,
	}
}

func TestMemStore_AddReadRemove(t *testing.T) {
	m := store.NewMemStore()
	m.CreateTable(testTable())

	ptr, err := m.AddRow(context.Background(), "T", dml.Row{1})
	require.NoError(t, err)

	row, ok, err := m.ReadRow(context.Background(), "T", ptr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dml.Row{1}, row)

	require.NoError(t, m.RemoveRow(context.Background(), "T", ptr))
	_, ok, err = m.ReadRow(context.Background(), "T", ptr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStore_AddRow_DuplicatePrimaryKey(t *testing.T) {
	m := store.NewMemStore()
	m.CreateTable(testTable())

	_, err := m.AddRow(context.Background(), "T", dml.Row{1})
	require.NoError(t, err)

	_, err = m.AddRow(context.Background(), "T", dml.Row{1})
	require.Error(t, err)
	var target *dml.ErrIntegrityViolation
	assert.ErrorAs(t, err, &target)
}

func TestMemStore_LockRow_BlocksSecondLocker(t *testing.T) {
	m := store.NewMemStore()
	m.CreateTable(testTable())
	ptr, err := m.AddRow(context.Background(), "T", dml.Row{1})
	require.NoError(t, err)

	require.NoError(t, m.LockRow(context.Background(), noTimeoutSession{}, "T", ptr))

	err = m.LockRow(context.Background(), shortTimeoutSession{d: 10 * time.Millisecond}, "T", ptr)
	require.Error(t, err)
	var target *dml.ErrLockTimeout
	assert.ErrorAs(t, err, &target)

	m.UnlockRow("T", ptr)
	require.NoError(t, m.LockRow(context.Background(), noTimeoutSession{}, "T", ptr))
}

func TestMemStore_LockTable_ReadersDoNotBlockEachOther(t *testing.T) {
	m := store.NewMemStore()
	m.CreateTable(testTable())

	require.NoError(t, m.LockTable(context.Background(), noTimeoutSession{}, "T", dml.LockRead))
	require.NoError(t, m.LockTable(context.Background(), noTimeoutSession{}, "T", dml.LockRead))
	m.UnlockTable("T", dml.LockRead)
	m.UnlockTable("T", dml.LockRead)
}

func TestMemStore_FireRowTrigger_RespectsFiresRowPredicate(t *testing.T) {
	m := store.NewMemStore()
	table := testTable()
	var fired bool
	table.FiresRow = func(row dml.Row) bool { return row[0].(int) > 5 }
	table.RowTriggers = []dml.RowTrigger{
		{Timing: dml.TriggerBefore, Action: dml.ActionUpdate, Fire: func(ctx context.Context, s dml.Session, old, new dml.Row) (bool, error) {
			fired = true
			return false, nil
		}},
	}
	m.CreateTable(table)

	vetoed, err := m.FireRowTrigger(context.Background(), noTimeoutSession{}, "T", dml.TriggerBefore, dml.ActionUpdate, dml.Row{1}, dml.Row{1})
	require.NoError(t, err)
	assert.False(t, vetoed)
	assert.False(t, fired, "predicate should have suppressed the trigger")

	_, err = m.FireRowTrigger(context.Background(), noTimeoutSession{}, "T", dml.TriggerBefore, dml.ActionUpdate, dml.Row{10}, dml.Row{10})
	require.NoError(t, err)
	assert.True(t, fired)
}
