package dml

import (
	"strconv"
	"strings"
)

// GeneratedKeysKind names the caller's request shape.
type GeneratedKeysKind int

const (
	// GeneratedKeysAll requests "all interesting columns": identity,
	// primary-key members, and non-constant default columns.
	GeneratedKeysAll GeneratedKeysKind = iota
	// GeneratedKeysByIndex requests an explicit vector of 1-based column
	// indexes.
	GeneratedKeysByIndex
	// GeneratedKeysByName requests an explicit vector of column names.
	GeneratedKeysByName
)

// GeneratedKeysRequest is the caller's generated-keys request (C8 input).
type GeneratedKeysRequest struct {
	Kind    GeneratedKeysKind
	Indexes []int // 1-based, only for GeneratedKeysByIndex
	Names   []string
}

// ResolveGeneratedKeysIndexes turns req into a 0-based column-ordinal
// vector against table. An empty result is valid (not an error) and the
// caller should fall back to a Noop collector.
func ResolveGeneratedKeysIndexes(sess Session, table *TableDescriptor, req GeneratedKeysRequest) ([]int, error) {
	switch req.Kind {
	case GeneratedKeysAll:
		return resolveAllInterestingColumns(table), nil
	case GeneratedKeysByIndex:
		return resolveByIndex(table, req.Indexes)
	case GeneratedKeysByName:
		return resolveByName(sess, table, req.Names)
	default:
		return nil, NewErrInternal("unrecognized generated-keys request shape")
	}
}

func resolveAllInterestingColumns(table *TableDescriptor) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(ordinal int) {
		if !seen[ordinal] {
			seen[ordinal] = true
			out = append(out, ordinal)
		}
	}
	if table.IdentityCol >= 0 {
		add(table.IdentityCol)
	}
	for _, ord := range table.PrimaryKey {
		add(ord)
	}
	for _, col := range table.Columns {
		if col.HasDefault && !col.DefaultIsConstant {
			add(col.Ordinal)
		}
	}
	return out
}

func resolveByIndex(table *TableDescriptor, indexes []int) ([]int, error) {
	out := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 1 || idx > len(table.Columns) {
			return nil, NewErrColumnNotFound(columnIndexLabel(idx), table.Name)
		}
		out = append(out, idx-1)
	}
	return out, nil
}

func columnIndexLabel(idx int) string {
	return "#" + strconv.Itoa(idx)
}

func resolveByName(sess Session, table *TableDescriptor, names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		ordinal, ok := table.ColumnByName(name)
		if !ok {
			folded := name
			switch {
			case sess.DatabaseToUpper():
				folded = strings.ToUpper(name)
			case sess.DatabaseToLower():
				folded = strings.ToLower(name)
			}
			ordinal, ok = table.ColumnByName(folded)
		}
		if !ok {
			ordinal, ok = caseInsensitiveLookup(table, name)
		}
		if !ok {
			return nil, NewErrColumnNotFound(name, table.Name)
		}
		out = append(out, ordinal)
	}
	return out, nil
}

func caseInsensitiveLookup(table *TableDescriptor, name string) (int, bool) {
	lower := strings.ToLower(name)
	for _, c := range table.Columns {
		if strings.ToLower(c.Name) == lower {
			return c.Ordinal, true
		}
	}
	return -1, false
}

// BuildGeneratedKeysCollector resolves req and returns the collector the
// executor should hand to INSERT/UPDATE/MERGE, along with the sink it will
// populate. An empty resolved index vector yields a Noop collector and an
// always-empty sink, per §4.7.
func BuildGeneratedKeysCollector(sess Session, table *TableDescriptor, req GeneratedKeysRequest) (DeltaChangeCollector, *ResultSink, error) {
	indexes, err := ResolveGeneratedKeysIndexes(sess, table, req)
	if err != nil {
		return nil, nil, err
	}
	sink := &ResultSink{}
	if len(indexes) == 0 {
		return NoopCollector{}, sink, nil
	}
	return GeneratedKeysFactory(sess, table, indexes, sink), sink, nil
}
