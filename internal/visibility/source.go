// internal/visibility/source.go
package visibility

import "sort"

/*
 * Value sources for policy evaluation.
 *
 * A policy only ever needs "the current value of field X". Both execution
 * contexts satisfy that with one method:
 *   - Values:    a snapshot map built once from a persisted record
 *   - ValueFunc: a live accessor over in-progress form state
 *   - JSONRecord (record.go): a decoded JSON document with dotted paths
 *
 * Missing codes resolve to nil; sources never report errors.
 */

// ValueSource yields the current value of a field by code.
type ValueSource interface {
	Value(code string) any
}

// Values is a snapshot of field values keyed by code.
type Values map[string]any

// Value implements ValueSource. Missing keys yield nil.
func (v Values) Value(code string) any {
	return v[code]
}

// ValueFunc adapts a live accessor to ValueSource.
type ValueFunc func(code string) any

// Value implements ValueSource. A nil func yields nil for every code.
func (f ValueFunc) Value(code string) any {
	if f == nil {
		return nil
	}
	return f(code)
}

// CodeSet is a set of field codes.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts code into the set.
func (s CodeSet) Add(code string) {
	s[code] = struct{}{}
}

// Has reports membership. Safe on a nil set.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the members in ascending order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
