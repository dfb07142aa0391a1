package dml

import (
	"context"
	"sync"
)

// DataChangeStatement is the interface the outer SQL execution pipeline
// drives: prepare once, then run update (possibly more than once, e.g. for
// a re-executed PreparedStatement) handing in whatever collector the
// caller's result-projection mode requires.
type DataChangeStatement interface {
	// Prepare resolves columns, optimizes the predicate, builds index
	// conditions and chooses a plan. Idempotent: calling it N times has
	// the same effect as once.
	Prepare(ctx context.Context) error
	// Update executes the statement against collector and returns the
	// affected row count.
	Update(ctx context.Context, collector DeltaChangeCollector) (int64, error)
}

// preparedPlan holds the Planner interaction shared by every statement
// kind, guarding idempotent Prepare with a mutex so concurrent callers
// (e.g. a statement re-used across sessions) cannot double-plan.
type preparedPlan struct {
	mu        sync.Mutex
	prepared  bool
	planner   Planner
	tableName string
	where     interface{}
	plan      PlanItem
}

func (p *preparedPlan) Prepare(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prepared {
		return nil
	}
	plan, err := p.planner.Plan(ctx, p.tableName, p.where)
	if err != nil {
		return err
	}
	p.plan = plan
	p.prepared = true
	return nil
}

// DeleteDataChangeStatement is a DataChangeStatement backed by ExecuteDelete.
type DeleteDataChangeStatement struct {
	plan     *preparedPlan
	store    RowStore
	sess     Session
	fetch    FetchSpec
	observer WriteObserver
}

// NewDeleteStatement builds an unprepared DELETE statement.
func NewDeleteStatement(store RowStore, sess Session, planner Planner, tableName string, where interface{}, fetch FetchSpec, observer WriteObserver) *DeleteDataChangeStatement {
	return &DeleteDataChangeStatement{
		plan:     &preparedPlan{planner: planner, tableName: tableName, where: where},
		store:    store,
		sess:     sess,
		fetch:    fetch,
		observer: observer,
	}
}

func (s *DeleteDataChangeStatement) Prepare(ctx context.Context) error { return s.plan.Prepare(ctx) }

func (s *DeleteDataChangeStatement) Update(ctx context.Context, collector DeltaChangeCollector) (int64, error) {
	if err := s.Prepare(ctx); err != nil {
		return 0, err
	}
	stmt := &DeleteStatement{TableName: s.plan.tableName, Plan: s.plan.plan, Fetch: s.fetch}
	return ExecuteDelete(ctx, s.store, s.sess, stmt, collector, s.observer)
}

var _ DataChangeStatement = (*DeleteDataChangeStatement)(nil)

// UpdateDataChangeStatement is a DataChangeStatement backed by ExecuteUpdate.
type UpdateDataChangeStatement struct {
	plan        *preparedPlan
	store       RowStore
	sess        Session
	fetch       FetchSpec
	assignments []SetAssignment
	engine      ExpressionEngine
	validate    ConstraintChecker
	onDupFallback bool
	observer    WriteObserver
}

// NewUpdateStatement builds an unprepared UPDATE statement.
func NewUpdateStatement(store RowStore, sess Session, planner Planner, tableName string, where interface{}, fetch FetchSpec, assignments []SetAssignment, engine ExpressionEngine, validate ConstraintChecker, onDupFallback bool, observer WriteObserver) *UpdateDataChangeStatement {
	return &UpdateDataChangeStatement{
		plan:          &preparedPlan{planner: planner, tableName: tableName, where: where},
		store:         store,
		sess:          sess,
		fetch:         fetch,
		assignments:   assignments,
		engine:        engine,
		validate:      validate,
		onDupFallback: onDupFallback,
		observer:      observer,
	}
}

func (s *UpdateDataChangeStatement) Prepare(ctx context.Context) error { return s.plan.Prepare(ctx) }

func (s *UpdateDataChangeStatement) Update(ctx context.Context, collector DeltaChangeCollector) (int64, error) {
	if err := s.Prepare(ctx); err != nil {
		return 0, err
	}
	stmt := &UpdateStatement{
		TableName:              s.plan.tableName,
		Plan:                   s.plan.plan,
		Fetch:                  s.fetch,
		Assignments:            s.assignments,
		Engine:                 s.engine,
		Validate:               s.validate,
		OnDuplicateKeyFallback: s.onDupFallback,
	}
	return ExecuteUpdate(ctx, s.store, s.sess, stmt, collector, s.observer)
}

var _ DataChangeStatement = (*UpdateDataChangeStatement)(nil)

// InsertDataChangeStatement is a DataChangeStatement backed by
// ExecuteInsert, giving INSERT/MERGE (C7) the same Prepare/Update contract
// DELETE and UPDATE get. Unlike the predicate-driven statements it has no
// Planner to consult — Prepare only resolves the table descriptor once, so
// a missing table surfaces at Prepare time rather than on first Update.
type InsertDataChangeStatement struct {
	mu        sync.Mutex
	prepared  bool
	store     RowStore
	sess      Session
	tableName string
	source    SourceRowProvider
	expand    DefaultExpander
	assign    IdentityAssigner
	onDup     DuplicateKeyHandler
	observer  WriteObserver
}

// NewInsertStatement builds an unprepared INSERT/MERGE statement.
func NewInsertStatement(store RowStore, sess Session, tableName string, source SourceRowProvider, expand DefaultExpander, assign IdentityAssigner, onDup DuplicateKeyHandler, observer WriteObserver) *InsertDataChangeStatement {
	return &InsertDataChangeStatement{
		store:     store,
		sess:      sess,
		tableName: tableName,
		source:    source,
		expand:    expand,
		assign:    assign,
		onDup:     onDup,
		observer:  observer,
	}
}

func (s *InsertDataChangeStatement) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prepared {
		return nil
	}
	if _, err := s.store.TableDescriptor(ctx, s.tableName); err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (s *InsertDataChangeStatement) Update(ctx context.Context, collector DeltaChangeCollector) (int64, error) {
	if err := s.Prepare(ctx); err != nil {
		return 0, err
	}
	stmt := &InsertStatement{
		TableName:      s.tableName,
		Source:         s.source,
		ExpandDefaults: s.expand,
		AssignIdentity: s.assign,
		OnDuplicateKey: s.onDup,
	}
	return ExecuteInsert(ctx, s.store, s.sess, stmt, collector, s.observer)
}

var _ DataChangeStatement = (*InsertDataChangeStatement)(nil)

// DataChangeDeltaTable wraps a DataChangeStatement as a read-only virtual
// table producing the OLD/NEW/FINAL rows of one execution.
type DataChangeDeltaTable struct {
	stmt   DataChangeStatement
	sess   Session
	option ResultOption
	table  *TableDescriptor
}

// NewDataChangeDeltaTable builds a delta table view over stmt, capturing
// the given lifecycle option (OLD, NEW or FINAL TABLE).
func NewDataChangeDeltaTable(stmt DataChangeStatement, sess Session, table *TableDescriptor, option ResultOption) *DataChangeDeltaTable {
	return &DataChangeDeltaTable{stmt: stmt, sess: sess, option: option, table: table}
}

// GetResult executes the wrapped statement with a DataChangeDeltaTable
// collector and returns the captured rows.
func (d *DataChangeDeltaTable) GetResult(ctx context.Context) ([]Row, int64, error) {
	sink := &ResultSink{}
	collector := DataChangeDeltaTableFactory(d.sess, d.table, sink, d.option)
	count, err := d.stmt.Update(ctx, collector)
	if err != nil {
		return nil, count, err
	}
	return sink.Rows, count, nil
}
