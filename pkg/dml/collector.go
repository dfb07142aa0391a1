package dml

import "context"

// DeltaChangeCollector is the single-method observer invoked at every
// (Action, ResultOption, Row) lifecycle point of a DML statement. It must
// never mutate values; the executor may pass the same backing array for
// multiple calls within one row's lifecycle only while its contents are
// stable across those calls.
type DeltaChangeCollector interface {
	Trigger(ctx context.Context, action Action, option ResultOption, values Row) error
}

// ResultSink accumulates projected rows for GeneratedKeys, RETURNING and
// DataChangeDeltaTable collectors. The zero value is ready to use.
type ResultSink struct {
	Rows []Row
}

func (s *ResultSink) append(row Row) {
	s.Rows = append(s.Rows, row)
}

// NoopCollector ignores every event.
type NoopCollector struct{}

func (NoopCollector) Trigger(context.Context, Action, ResultOption, Row) error { return nil }

// LastIdentityCollector copies values[identityOrdinal] into the session's
// last-inserted-identity slot on (INSERT, FINAL).
type LastIdentityCollector struct {
	Session        Session
	IdentityOrdinal int
}

func (c *LastIdentityCollector) Trigger(_ context.Context, action Action, option ResultOption, values Row) error {
	if action == ActionInsert && option == OptionFinal {
		if c.IdentityOrdinal >= 0 && c.IdentityOrdinal < len(values) {
			c.Session.SetLastIdentity(values[c.IdentityOrdinal])
		}
	}
	return nil
}

// GeneratedKeysCollector projects values through Indexes into Sink on every
// FINAL event.
type GeneratedKeysCollector struct {
	Indexes []int
	Sink    *ResultSink
}

func (c *GeneratedKeysCollector) Trigger(_ context.Context, _ Action, option ResultOption, values Row) error {
	if option != OptionFinal {
		return nil
	}
	projected := make(Row, len(c.Indexes))
	for i, idx := range c.Indexes {
		if idx >= 0 && idx < len(values) {
			projected[i] = values[idx]
		}
	}
	c.Sink.append(projected)
	return nil
}

// DataChangeDeltaTableCollector records values into Sink whenever the event
// option matches the configured Option.
type DataChangeDeltaTableCollector struct {
	Option ResultOption
	Sink   *ResultSink
}

func (c *DataChangeDeltaTableCollector) Trigger(_ context.Context, _ Action, option ResultOption, values Row) error {
	if option == c.Option {
		c.Sink.append(values.Clone())
	}
	return nil
}

// ReturningCollector evaluates Exprs against the current row cursor on
// (DELETE, OLD) or (INSERT|UPDATE, FINAL) and records the result into Sink.
type ReturningCollector struct {
	Session Session
	Engine  ExpressionEngine
	Exprs   []interface{}
	Sink    *ResultSink
}

func (c *ReturningCollector) Trigger(ctx context.Context, action Action, option ResultOption, values Row) error {
	fires := (action == ActionDelete && option == OptionOld) ||
		((action == ActionInsert || action == ActionUpdate) && option == OptionFinal)
	if !fires {
		return nil
	}
	cursor := simpleRowCursor(values, values)
	out := make(Row, len(c.Exprs))
	for i, expr := range c.Exprs {
		v, err := c.Engine.Evaluate(ctx, expr, cursor)
		if err != nil {
			return err
		}
		out[i] = v
	}
	c.Sink.append(out)
	return nil
}

// CompositeCollector fans out every event to Children in construction
// order, with no short-circuit: a child's error does not stop the
// remaining children from observing the event, but is returned (the first
// one encountered) to the caller after all children have run.
type CompositeCollector struct {
	Children []DeltaChangeCollector
}

func (c *CompositeCollector) Trigger(ctx context.Context, action Action, option ResultOption, values Row) error {
	var first error
	for _, child := range c.Children {
		if err := child.Trigger(ctx, action, option, values); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// eligibleForLastIdentity reports whether LastIdentity wrapping applies:
// the session wants identity capture and the table has an identity column.
func eligibleForLastIdentity(sess Session, table *TableDescriptor) bool {
	return sess.TakeInsertedIdentity() && table.IdentityCol >= 0
}

func wrapLastIdentity(sess Session, table *TableDescriptor, inner DeltaChangeCollector) DeltaChangeCollector {
	if !eligibleForLastIdentity(sess, table) {
		return inner
	}
	return &CompositeCollector{Children: []DeltaChangeCollector{
		&LastIdentityCollector{Session: sess, IdentityOrdinal: table.IdentityCol},
		inner,
	}}
}

// DefaultCollector builds LastIdentity∘Noop when eligible, else Noop.
func DefaultCollector(sess Session, table *TableDescriptor) DeltaChangeCollector {
	return wrapLastIdentity(sess, table, NoopCollector{})
}

// DataChangeDeltaTableFactory builds LastIdentity∘DataChangeDeltaTable(option,sink)
// when eligible, else the inner collector alone.
func DataChangeDeltaTableFactory(sess Session, table *TableDescriptor, sink *ResultSink, option ResultOption) DeltaChangeCollector {
	inner := &DataChangeDeltaTableCollector{Option: option, Sink: sink}
	return wrapLastIdentity(sess, table, inner)
}

// GeneratedKeysFactory builds LastIdentity∘GeneratedKeys(indexVec,sink) when
// eligible.
func GeneratedKeysFactory(sess Session, table *TableDescriptor, indexVec []int, sink *ResultSink) DeltaChangeCollector {
	inner := &GeneratedKeysCollector{Indexes: indexVec, Sink: sink}
	return wrapLastIdentity(sess, table, inner)
}

// ReturningFactory builds LastIdentity∘Returning(session,exprs,sink) when
// eligible.
func ReturningFactory(sess Session, table *TableDescriptor, engine ExpressionEngine, exprs []interface{}, sink *ResultSink) DeltaChangeCollector {
	inner := &ReturningCollector{Session: sess, Engine: engine, Exprs: exprs, Sink: sink}
	return wrapLastIdentity(sess, table, inner)
}
