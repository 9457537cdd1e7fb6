package visibility

import (
	"fmt"
	"reflect"
)

// Condition is one visibility rule: compare the value of another field on
// the same record against a literal.
type Condition struct {
	FieldCode string   // code of the field whose value is inspected
	Operator  Operator // comparison applied to (value, Value)
	Value     any      // comparison literal (ignored by is_empty/is_not_empty)
}

// Equal reports structural equality: same dependency code, operator and
// comparison value.
func (c Condition) Equal(other Condition) bool {
	return c.FieldCode == other.FieldCode &&
		c.Operator == other.Operator &&
		reflect.DeepEqual(c.Value, other.Value)
}

// Evaluate looks the dependency up in src and applies the operator.
// A dependency missing from src is nil.
func (c Condition) Evaluate(src ValueSource) bool {
	var value any
	if src != nil {
		value = src.Value(c.FieldCode)
	}
	return c.Operator.Evaluate(value, c.Value)
}

func (c Condition) String() string {
	switch c.Operator {
	case OpIsEmpty, OpIsNotEmpty:
		return fmt.Sprintf("%s %s", c.FieldCode, c.Operator)
	}
	return fmt.Sprintf("%s %s %v", c.FieldCode, c.Operator, c.Value)
}
