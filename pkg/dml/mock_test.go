package dml_test

import (
	"context"
	"time"

	"github.com/kasuganosora/sqlexec/pkg/dml"
)

// testSession is a minimal dml.Session fake for unit tests, following the
// call-tracking mock convention used elsewhere in this module.
type testSession struct {
	canceled       bool
	timeoutEnabled bool
	timeoutAfter   time.Duration
	lastIdentity   dml.Value
	takeIdentity   bool
	toUpper        bool
	toLower        bool
	denyAction     string
}

func (s *testSession) Canceled() bool { return s.canceled }

func (s *testSession) LockTimeout() (bool, func() <-chan struct{}) {
	return s.timeoutEnabled, func() <-chan struct{} {
		d := s.timeoutAfter
		if d == 0 {
			d = 50 * time.Millisecond
		}
		ch := make(chan struct{})
		go func() {
			time.Sleep(d)
			close(ch)
		}()
		return ch
	}
}

func (s *testSession) SetLastIdentity(v dml.Value) { s.lastIdentity = v }

func (s *testSession) CheckPrivilege(action, tableName string) error {
	if s.denyAction == action {
		return dml.NewErrAccessDenied("tester", action, tableName)
	}
	return nil
}

func (s *testSession) TakeInsertedIdentity() bool { return s.takeIdentity }
func (s *testSession) DatabaseToUpper() bool       { return s.toUpper }
func (s *testSession) DatabaseToLower() bool       { return s.toLower }

// fakePlanItem walks a fixed slice of row pointers and optionally applies a
// residual predicate on recheck.
type fakePlanItem struct {
	ptrs      []dml.RowPointer
	idx       int
	predicate func(dml.Row) bool
}

func (p *fakePlanItem) Next(ctx context.Context) (dml.RowPointer, bool, error) {
	if p.idx >= len(p.ptrs) {
		return nil, false, nil
	}
	ptr := p.ptrs[p.idx]
	p.idx++
	return ptr, true, nil
}

func (p *fakePlanItem) Matches(row dml.Row) bool {
	if p.predicate == nil {
		return true
	}
	return p.predicate(row)
}

// fakeEngine evaluates expressions that are themselves
// func(dml.RowCursor) dml.Value closures, avoiding the need for a real
// expression tree in unit tests.
type fakeEngine struct{}

func (fakeEngine) Evaluate(_ context.Context, expr interface{}, cursor dml.RowCursor) (dml.Value, error) {
	fn := expr.(func(dml.RowCursor) dml.Value)
	return fn(cursor), nil
}

func (fakeEngine) IsConstant(interface{}) bool { return false }
