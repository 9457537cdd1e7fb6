// internal/visibility/operators.go
package visibility

import (
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Implements 14 comparison and membership operators as pure, total
 * functions of (fieldValue, ruleValue). See coercion.go for how loosely
 * typed values are normalised.
 *
 * Operators:
 *   - equals/not_equals: numeric when both sides are numeric, set
 *     equality for two collections, empty-equals-empty, else text
 *   - contains/not_contains: element membership for collection fields,
 *     substring for scalar fields
 *   - greater_than[_or_equal]/less_than[_or_equal]: numeric, falling
 *     back to lexicographic text; false if either side is empty
 *   - in/not_in: field value (or any element of it) is a member of the
 *     rule value list
 *   - starts_with/ends_with: text prefix/suffix
 *   - is_empty/is_not_empty: rule value ignored
 *
 * Function-based like the rest of this package: a switch over a closed
 * enum, no per-operator types.
 */

// Operator mirrors the stored "operator" string of a condition.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEquals
	OpNotEquals
	OpContains
	OpNotContains
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIn
	OpNotIn
	OpStartsWith
	OpEndsWith
	OpIsEmpty
	OpIsNotEmpty
)

var operatorNames = [...]string{
	OpUnspecified:        "",
	OpEquals:             "equals",
	OpNotEquals:          "not_equals",
	OpContains:           "contains",
	OpNotContains:        "not_contains",
	OpGreaterThan:        "greater_than",
	OpGreaterThanOrEqual: "greater_than_or_equal",
	OpLessThan:           "less_than",
	OpLessThanOrEqual:    "less_than_or_equal",
	OpIn:                 "in",
	OpNotIn:              "not_in",
	OpStartsWith:         "starts_with",
	OpEndsWith:           "ends_with",
	OpIsEmpty:            "is_empty",
	OpIsNotEmpty:         "is_not_empty",
}

// ParseOperator converts a stored operator name. Unknown names yield
// OpUnspecified, which never matches.
func ParseOperator(s string) Operator {
	s = normalizeName(s)
	if s == "" {
		return OpUnspecified
	}
	for op, name := range operatorNames {
		if name == s {
			return Operator(op)
		}
	}
	return OpUnspecified
}

// String returns the stored name of the operator ("" for OpUnspecified).
func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorNames) {
		return ""
	}
	return operatorNames[op]
}

// Evaluate applies the operator to a field value and a rule value.
func (op Operator) Evaluate(fieldValue, ruleValue any) bool {
	switch op {
	case OpEquals:
		return compareEqual(fieldValue, ruleValue)
	case OpNotEquals:
		return !compareEqual(fieldValue, ruleValue)
	case OpContains:
		return compareContains(fieldValue, ruleValue)
	case OpNotContains:
		return !compareContains(fieldValue, ruleValue)
	case OpGreaterThan:
		c, ok := compareOrdered(fieldValue, ruleValue)
		return ok && c > 0
	case OpGreaterThanOrEqual:
		c, ok := compareOrdered(fieldValue, ruleValue)
		return ok && c >= 0
	case OpLessThan:
		c, ok := compareOrdered(fieldValue, ruleValue)
		return ok && c < 0
	case OpLessThanOrEqual:
		c, ok := compareOrdered(fieldValue, ruleValue)
		return ok && c <= 0
	case OpIn:
		return compareIn(fieldValue, ruleValue)
	case OpNotIn:
		return !compareIn(fieldValue, ruleValue)
	case OpStartsWith:
		return compareAffix(fieldValue, ruleValue, strings.HasPrefix)
	case OpEndsWith:
		return compareAffix(fieldValue, ruleValue, strings.HasSuffix)
	case OpIsEmpty:
		return isEmpty(fieldValue)
	case OpIsNotEmpty:
		return !isEmpty(fieldValue)
	default:
		return false
	}
}

// compareEqual performs equality with the package coercion rules.
func compareEqual(a, b any) bool {
	ea, eb := isEmpty(a), isEmpty(b)
	if ea || eb {
		return ea && eb
	}
	la, okA := asList(a)
	lb, okB := asList(b)
	switch {
	case okA && okB:
		return sameElements(la, lb)
	case okA || okB:
		return false
	}
	return scalarEqual(a, b)
}

// scalarEqual compares two non-collection values.
func scalarEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return toText(a) == toText(b)
}

// sameElements is order-insensitive multiset equality.
func sameElements(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && compareEqual(x, y) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// compareContains checks element membership for collection fields and
// substring containment for scalar fields. An empty needle never matches.
func compareContains(field, needle any) bool {
	if isEmpty(field) || isEmpty(needle) {
		return false
	}
	if elems, ok := asList(field); ok {
		if needles, ok := asList(needle); ok {
			for _, n := range needles {
				if memberOf(n, elems) {
					return true
				}
			}
			return false
		}
		return memberOf(needle, elems)
	}
	if _, ok := asList(needle); ok {
		return false
	}
	return strings.Contains(toText(field), toText(needle))
}

// compareIn checks that the field value, or any element of a collection
// field value, is a member of the rule list. A scalar rule value is a
// one-element list.
func compareIn(field, set any) bool {
	if isEmpty(field) {
		return false
	}
	members, ok := asList(set)
	if !ok {
		if isEmpty(set) {
			return false
		}
		members = []any{set}
	}
	if elems, ok := asList(field); ok {
		for _, e := range elems {
			if memberOf(e, members) {
				return true
			}
		}
		return false
	}
	return memberOf(field, members)
}

func memberOf(v any, set []any) bool {
	for _, elem := range set {
		if compareEqual(v, elem) {
			return true
		}
	}
	return false
}

// compareOrdered performs three-way comparison (-1/0/1). The second result
// is false when either side is empty or a collection.
func compareOrdered(a, b any) (int, bool) {
	if isEmpty(a) || isEmpty(b) {
		return 0, false
	}
	if _, ok := asList(a); ok {
		return 0, false
	}
	if _, ok := asList(b); ok {
		return 0, false
	}
	if na, nb, ok := asNumbers(a, b); ok {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	return strings.Compare(toText(a), toText(b)), true
}

// compareAffix applies a prefix/suffix predicate to textual forms.
func compareAffix(value, affix any, match func(s, affix string) bool) bool {
	if isEmpty(value) || isEmpty(affix) {
		return false
	}
	if _, ok := asList(value); ok {
		return false
	}
	return match(toText(value), toText(affix))
}
