package visibility

import (
	"encoding/json"
	"testing"
)

func TestOperator_Evaluate(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		field any
		rule  any
		want  bool
	}{
		// equals
		{"equals: same string", OpEquals, "US", "US", true},
		{"equals: different string", OpEquals, "CA", "US", false},
		{"equals: case sensitive", OpEquals, "us", "US", false},
		{"equals: numeric string vs number", OpEquals, "42", 42, true},
		{"equals: float vs int", OpEquals, 42.0, 42, true},
		{"equals: numeric strings with whitespace", OpEquals, " 3.50 ", "3.5", true},
		{"equals: json.Number", OpEquals, json.Number("7"), 7.0, true},
		{"equals: bool vs bool", OpEquals, true, true, true},
		{"equals: bool vs text", OpEquals, true, "true", true},
		{"equals: nil vs empty string", OpEquals, nil, "", true},
		{"equals: nil vs empty list", OpEquals, nil, []any{}, true},
		{"equals: empty string vs empty list", OpEquals, "", []string{}, true},
		{"equals: nil vs value", OpEquals, nil, "US", false},
		{"equals: lists ignore order", OpEquals, []any{"a", "b"}, []string{"b", "a"}, true},
		{"equals: lists differ in length", OpEquals, []any{"a"}, []any{"a", "b"}, false},
		{"equals: list vs scalar", OpEquals, []any{"a"}, "a", false},
		{"equals: NaN string is text", OpEquals, "NaN", "NaN", true},

		// not_equals
		{"not_equals: different", OpNotEquals, "viewer", "admin", true},
		{"not_equals: same", OpNotEquals, "admin", "admin", false},
		{"not_equals: nil vs value", OpNotEquals, nil, "admin", true},

		// contains
		{"contains: substring", OpContains, "hello world", "world", true},
		{"contains: missing substring", OpContains, "hello", "bye", false},
		{"contains: list element", OpContains, []any{"red", "blue"}, "blue", true},
		{"contains: list numeric element", OpContains, []any{1.0, 2.0}, "2", true},
		{"contains: list missing element", OpContains, []string{"red"}, "blue", false},
		{"contains: list any of needles", OpContains, []any{"red"}, []any{"blue", "red"}, true},
		{"contains: nil field", OpContains, nil, "x", false},
		{"contains: empty needle", OpContains, "abc", "", false},
		{"contains: scalar field list needle", OpContains, "abc", []any{"a"}, false},
		{"contains: number as text", OpContains, 12345, "234", true},

		// not_contains
		{"not_contains: missing", OpNotContains, "hello", "bye", true},
		{"not_contains: present", OpNotContains, []any{"x"}, "x", false},
		{"not_contains: nil field", OpNotContains, nil, "x", true},

		// ordering
		{"greater_than: numeric", OpGreaterThan, 21, 18, true},
		{"greater_than: numeric string", OpGreaterThan, "21", 18, true},
		{"greater_than: numeric not lexicographic", OpGreaterThan, "10", "9", true},
		{"greater_than: equal", OpGreaterThan, 18, 18, false},
		{"greater_than: text fallback", OpGreaterThan, "b", "a", true},
		{"greater_than: nil field", OpGreaterThan, nil, 0, false},
		{"greater_than: empty rule", OpGreaterThan, 5, "", false},
		{"greater_than: list field", OpGreaterThan, []any{5}, 1, false},
		{"greater_than_or_equal: equal", OpGreaterThanOrEqual, 18, "18", true},
		{"greater_than_or_equal: less", OpGreaterThanOrEqual, 17, 18, false},
		{"less_than: numeric", OpLessThan, 3, 4.5, true},
		{"less_than: text fallback", OpLessThan, "apple", "banana", true},
		{"less_than: nil field", OpLessThan, nil, 10, false},
		{"less_than_or_equal: equal", OpLessThanOrEqual, 4.5, "4.5", true},
		{"less_than_or_equal: greater", OpLessThanOrEqual, 5, 4, false},

		// in / not_in
		{"in: member", OpIn, "owner", []any{"admin", "owner"}, true},
		{"in: not member", OpIn, "viewer", []any{"admin", "owner"}, false},
		{"in: numeric member", OpIn, "2", []any{1.0, 2.0}, true},
		{"in: scalar rule", OpIn, "admin", "admin", true},
		{"in: list field overlap", OpIn, []any{"x", "admin"}, []string{"admin"}, true},
		{"in: list field no overlap", OpIn, []any{"x"}, []string{"admin"}, false},
		{"in: nil field", OpIn, nil, []any{nil, ""}, false},
		{"in: empty rule", OpIn, "admin", nil, false},
		{"not_in: not member", OpNotIn, "viewer", []any{"admin"}, true},
		{"not_in: member", OpNotIn, "admin", []any{"admin"}, false},

		// starts_with / ends_with
		{"starts_with: match", OpStartsWith, "+1 555", "+1", true},
		{"starts_with: no match", OpStartsWith, "+44 20", "+1", false},
		{"starts_with: nil field", OpStartsWith, nil, "+1", false},
		{"ends_with: match", OpEndsWith, "user@example.com", "@example.com", true},
		{"ends_with: list field", OpEndsWith, []any{"a.com"}, ".com", false},

		// emptiness
		{"is_empty: nil", OpIsEmpty, nil, nil, true},
		{"is_empty: empty string", OpIsEmpty, "", "ignored", true},
		{"is_empty: empty list", OpIsEmpty, []any{}, nil, true},
		{"is_empty: empty map", OpIsEmpty, map[string]any{}, nil, true},
		{"is_empty: zero is not empty", OpIsEmpty, 0, nil, false},
		{"is_empty: false is not empty", OpIsEmpty, false, nil, false},
		{"is_empty: whitespace is not empty", OpIsEmpty, " ", nil, false},
		{"is_not_empty: value", OpIsNotEmpty, "x", nil, true},
		{"is_not_empty: nil", OpIsNotEmpty, nil, nil, false},
		{"is_not_empty: list", OpIsNotEmpty, []int{1}, nil, true},

		// unspecified
		{"unspecified never matches", OpUnspecified, "x", "x", false},
		{"out of range never matches", Operator(99), "x", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.Evaluate(tt.field, tt.rule); got != tt.want {
				t.Errorf("%v.Evaluate(%#v, %#v) = %v, want %v", tt.op, tt.field, tt.rule, got, tt.want)
			}
		})
	}
}

func TestParseOperator(t *testing.T) {
	for op := OpEquals; op <= OpIsNotEmpty; op++ {
		if got := ParseOperator(op.String()); got != op {
			t.Errorf("ParseOperator(%q) = %v, want %v", op.String(), got, op)
		}
	}
	if got := ParseOperator("  Equals "); got != OpEquals {
		t.Errorf(`ParseOperator("  Equals ") = %v, want OpEquals`, got)
	}
	for _, in := range []string{"", "like", "=="} {
		if got := ParseOperator(in); got != OpUnspecified {
			t.Errorf("ParseOperator(%q) = %v, want OpUnspecified", in, got)
		}
	}
	if got := Operator(-1).String(); got != "" {
		t.Errorf("Operator(-1).String() = %q, want empty", got)
	}
}

func TestOperator_TypeMismatchesNeverPanic(t *testing.T) {
	type custom struct{ A int }
	var nilPtr *custom
	values := []any{
		nil, "", "x", "12", 0, -1.5, true, json.Number("bad"),
		[]any{}, []any{"a", 1.0, nil}, []string{"a"}, []int{1, 2},
		map[string]any{}, map[string]any{"k": "v"}, custom{A: 1}, &custom{}, nilPtr,
		[2]string{"a", "b"}, []byte("bytes"),
	}
	for op := OpUnspecified; op <= OpIsNotEmpty; op++ {
		for _, a := range values {
			for _, b := range values {
				func() {
					defer func() {
						if r := recover(); r != nil {
							t.Errorf("%v.Evaluate(%#v, %#v) panicked: %v", op, a, b, r)
						}
					}()
					op.Evaluate(a, b)
				}()
			}
		}
	}
}
