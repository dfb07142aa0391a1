package dml_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/sqlexec/pkg/dml"
	"github.com/kasuganosora/sqlexec/pkg/dml/store"
)

func TestExecuteUpdate_ScenarioTwo(t *testing.T) {
	mem := store.NewMemStore()
	mem.CreateTable(tableT())
	p1, err := mem.SeedRow("T", dml.Row{1, 10})
	require.NoError(t, err)

	plan := &fakePlanItem{ptrs: []dml.RowPointer{p1}, predicate: func(r dml.Row) bool { return r[0].(int) == 1 }}
	sess := &testSession{}

	sink := &dml.ResultSink{}
	collector := dml.DataChangeDeltaTableFactory(sess, tableT(), sink, dml.OptionNew)

	assignments := []dml.SetAssignment{
		{Ordinal: 1, Expr: func(c dml.RowCursor) dml.Value { return c.Old(1).(int) + 1 }},
	}
	stmt := &dml.UpdateStatement{TableName: "T", Plan: plan, Assignments: assignments, Engine: fakeEngine{}}

	count, err := dml.ExecuteUpdate(context.Background(), mem, sess, stmt, collector, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, sink.Rows, 1)
	assert.Equal(t, dml.Row{1, 11}, sink.Rows[0])

	row, ok, err := mem.ReadRow(context.Background(), "T", p1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 11, row[1])
}

func TestExecuteUpdate_NoOpOptimization(t *testing.T) {
	mem := store.NewMemStore()
	mem.CreateTable(tableT())
	p1, _ := mem.SeedRow("T", dml.Row{1, 10})

	plan := &fakePlanItem{ptrs: []dml.RowPointer{p1}}
	sess := &testSession{}

	var events int
	collector := collectorFunc(func(context.Context, dml.Action, dml.ResultOption, dml.Row) error {
		events++
		return nil
	})

	assignments := []dml.SetAssignment{
		{Ordinal: 0, Expr: func(c dml.RowCursor) dml.Value { return c.Old(0) }},
	}
	stmt := &dml.UpdateStatement{TableName: "T", Plan: plan, Assignments: assignments, Engine: fakeEngine{}}

	count, err := dml.ExecuteUpdate(context.Background(), mem, sess, stmt, collector, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 0, events, "no-op update must deliver no collector events")
}

func TestExecuteUpdate_OnDuplicateKeyFallbackSkipsViolation(t *testing.T) {
	mem := store.NewMemStore()
	mem.CreateTable(tableT())
	p1, _ := mem.SeedRow("T", dml.Row{1, 10})

	plan := &fakePlanItem{ptrs: []dml.RowPointer{p1}}
	sess := &testSession{}

	assignments := []dml.SetAssignment{
		{Ordinal: 1, Expr: func(c dml.RowCursor) dml.Value { return 99 }},
	}
	stmt := &dml.UpdateStatement{
		TableName:   "T",
		Plan:        plan,
		Assignments: assignments,
		Engine:      fakeEngine{},
		Validate: func(ctx context.Context, table *dml.TableDescriptor, newRow dml.Row) error {
			return dml.NewErrIntegrityViolation("CHECK", "b must stay below 50")
		},
		OnDuplicateKeyFallback: true,
	}

	count, err := dml.ExecuteUpdate(context.Background(), mem, sess, stmt, dml.NoopCollector{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
