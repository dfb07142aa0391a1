// Package dml implements the DML execution core: the scan+lock+validate,
// delta-observer, trigger, and generated-key machinery that backs DELETE,
// UPDATE, INSERT and MERGE statements. It never parses SQL, plans joins, or
// touches the page/file layer; those are external collaborators reached
// only through the RowStore, Session, ExpressionEngine and Planner
// interfaces in this package.
package dml

import "context"

// Value is a single typed cell. The executor never interprets it beyond
// passing it to the ExpressionEngine and RowStore.
type Value = interface{}

// Row is an ordered sequence of typed values, one per table column plus any
// hidden trailing values (identity/rowid) the row store appends.
type Row []Value

// Clone returns an independent copy of the row. Collectors must never see a
// mutated alias of a row they have already observed.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Equal reports whether two rows carry identical values column by column.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// RowPointer is an opaque handle issued by the row store, stable for the
// physical lifetime of the row it names. The DML core never interprets its
// contents.
type RowPointer interface{}

// Action names the statement kind an event belongs to.
type Action int

const (
	ActionDelete Action = iota
	ActionInsert
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "DELETE"
	case ActionInsert:
		return "INSERT"
	case ActionUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// ResultOption names the row lifecycle snapshot an event carries.
type ResultOption int

const (
	OptionOld ResultOption = iota
	OptionNew
	OptionFinal
)

func (o ResultOption) String() string {
	switch o {
	case OptionOld:
		return "OLD"
	case OptionNew:
		return "NEW"
	case OptionFinal:
		return "FINAL"
	default:
		return "UNKNOWN"
	}
}

// ColumnDescriptor describes one table column.
type ColumnDescriptor struct {
	Name       string
	Ordinal    int // 0-based position within Row
	Type       string
	Nullable   bool
	IsIdentity bool
	// HasDefault and DefaultIsConstant distinguish defaults the generated
	// keys projector treats as "interesting" (non-constant, e.g. sequences
	// or IDENTITY) from plain constant defaults.
	HasDefault        bool
	DefaultIsConstant bool
	Default           func(ctx context.Context) (Value, error)
}

// LockMode names the table-level lock escalation the executors request.
type LockMode int

const (
	LockRead LockMode = iota
	LockWrite
)

// TriggerTiming and TriggerGranularity describe when a trigger fires.
type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
)

type TriggerGranularity int

const (
	TriggerStatement TriggerGranularity = iota
	TriggerRow
)

// RowTrigger is a row-level trigger. It may mutate newRow in place (UPDATE
// only) and signals a veto by returning vetoed=true.
type RowTrigger struct {
	Timing TriggerTiming
	Action Action
	Fire   func(ctx context.Context, sess Session, oldRow, newRow Row) (vetoed bool, err error)
}

// StatementTrigger is a statement-level trigger, fired once per statement.
// Returning vetoed=true aborts the statement with a zero count (BEFORE
// only; meaningless for AFTER).
type StatementTrigger struct {
	Timing TriggerTiming
	Action Action
	Fire   func(ctx context.Context, sess Session) (vetoed bool, err error)
}

// TableDescriptor is the subset of table metadata the DML core needs.
type TableDescriptor struct {
	Name       string
	Columns    []ColumnDescriptor
	PrimaryKey []int // ordinals, nil if no primary key
	IdentityCol int  // ordinal, -1 if none

	RowTriggers       []RowTrigger
	StatementTriggers []StatementTrigger

	// FiresRow optionally restricts row-trigger firing to rows matching a
	// WHEN predicate. Nil means "always fires".
	FiresRow func(row Row) bool
}

// ColumnByName resolves a column case-sensitively, returning (-1, false) if
// absent.
func (t *TableDescriptor) ColumnByName(name string) (int, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Ordinal, true
		}
	}
	return -1, false
}

// Session is the external collaborator carrying per-connection state:
// cancellation, timeouts, identity capture, and case-folding mode.
type Session interface {
	// Canceled reports whether the in-flight statement has been asked to
	// stop.
	Canceled() bool
	// LockTimeout is the maximum duration a row/table lock wait may take
	// before the executor raises LockTimeout.
	LockTimeout() (enabled bool, timeout func() <-chan struct{})
	// SetLastIdentity records the identity value of the most recently
	// inserted row, visible to the session afterward.
	SetLastIdentity(v Value)
	// CheckPrivilege verifies the current user holds the named right on
	// table. A non-nil error must be an *ErrAccessDenied.
	CheckPrivilege(action, tableName string) error
	// TakeInsertedIdentity reports whether the session mode wants
	// LastIdentity wrapping.
	TakeInsertedIdentity() bool
	// DatabaseToUpper / DatabaseToLower report the DB-wide unquoted
	// identifier folding mode, used by the generated-keys name resolver.
	DatabaseToUpper() bool
	DatabaseToLower() bool
}

// ExpressionEngine evaluates SET-clause and RETURNING expressions against a
// row cursor. Expr is opaque to this package.
type ExpressionEngine interface {
	Evaluate(ctx context.Context, expr interface{}, cursor RowCursor) (Value, error)
	IsConstant(expr interface{}) bool
}

// RowCursor exposes OLD/NEW column values to the expression engine during
// SET-clause evaluation.
type RowCursor interface {
	Old(ordinal int) Value
	New(ordinal int) Value
}

// PlanItem is the chosen access path for a statement's target table,
// produced by the Planner.
type PlanItem interface {
	// Next advances to the next candidate row pointer. Returns false when
	// the source is exhausted.
	Next(ctx context.Context) (RowPointer, bool, error)
	// Matches re-evaluates the plan's residual predicate against a
	// (re-read) row. Index conditions are assumed already satisfied by
	// construction; this re-checks anything the index couldn't guarantee.
	Matches(row Row) bool
}

// Planner resolves the target table filter into a PlanItem.
type Planner interface {
	Plan(ctx context.Context, tableName string, where interface{}) (PlanItem, error)
}

func simpleRowCursor(old, new Row) RowCursor {
	return &basicCursor{old: old, new: new}
}

type basicCursor struct {
	old, new Row
}

func (c *basicCursor) Old(ordinal int) Value {
	if ordinal < 0 || ordinal >= len(c.old) {
		return nil
	}
	return c.old[ordinal]
}

func (c *basicCursor) New(ordinal int) Value {
	if ordinal < 0 || ordinal >= len(c.new) {
		return nil
	}
	return c.new[ordinal]
}
