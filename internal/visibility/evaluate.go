// internal/visibility/evaluate.go
package visibility

/*
 * Visibility evaluation in both execution contexts.
 *
 * Eager (backend): VisibleFields resolves every field and dependency value
 * from a materialised record exactly once into a Values snapshot, then
 * filters the field list against that snapshot. One snapshot per call means
 * no field sees a half-updated record. Input order is preserved.
 *
 * Reactive (frontend): EvaluateVisibility answers for one field against a
 * live accessor bound to unsaved form state. It is called on every change
 * of a dependency, so it keeps no cache and does no I/O. Dependency codes
 * that are not fields of the same entity resolve to nil.
 *
 * Both paths run the same Policy.Evaluate; only the ValueSource differs.
 */

// Field is what the engine needs from a field definition.
type Field interface {
	FieldCode() string
	VisibilityPolicy() *Policy
}

// Definition is a minimal Field for callers without their own field type.
type Definition struct {
	Code   string
	Policy *Policy
}

// FieldCode implements Field.
func (d Definition) FieldCode() string { return d.Code }

// VisibilityPolicy implements Field.
func (d Definition) VisibilityPolicy() *Policy { return d.Policy }

// Snapshot resolves the value of every field code and every dependency code
// from record once.
func Snapshot[F Field](record ValueSource, fields []F) Values {
	snap := make(Values, len(fields))
	if record == nil {
		return snap
	}
	resolve := func(code string) {
		if _, done := snap[code]; done {
			return
		}
		snap[code] = record.Value(code)
	}
	for _, f := range fields {
		resolve(f.FieldCode())
		for code := range f.VisibilityPolicy().Dependencies() {
			resolve(code)
		}
	}
	return snap
}

// VisibleFields filters fields down to those visible for record, keeping
// input order.
func VisibleFields[F Field](record ValueSource, fields []F) []F {
	snap := Snapshot(record, fields)
	visible := make([]F, 0, len(fields))
	for _, f := range fields {
		if f.VisibilityPolicy().Evaluate(snap) {
			visible = append(visible, f)
		}
	}
	return visible
}

// EvaluateVisibility decides one field's visibility from live form state.
// get is consulted only for codes that belong to allFields.
func EvaluateVisibility[F Field](field Field, allFields []F, get ValueFunc) bool {
	policy := field.VisibilityPolicy()
	if !policy.RequiresConditions() {
		return policy.Evaluate(nil)
	}
	known := make(CodeSet, len(allFields))
	for _, f := range allFields {
		known.Add(f.FieldCode())
	}
	return policy.Evaluate(ValueFunc(func(code string) any {
		if !known.Has(code) {
			return nil
		}
		return get.Value(code)
	}))
}

// ShouldPersist reports whether a submitted value for a field with policy p
// must be written, given the field's computed visibility.
func ShouldPersist(p *Policy, visible bool) bool {
	return visible || p.PersistsWhenHidden()
}

// Suppressed lists, in input order, the codes of fields that are hidden for
// src and whose values must therefore not be saved.
func Suppressed[F Field](src ValueSource, fields []F) []string {
	snap := Snapshot(src, fields)
	var codes []string
	for _, f := range fields {
		p := f.VisibilityPolicy()
		if !ShouldPersist(p, p.Evaluate(snap)) {
			codes = append(codes, f.FieldCode())
		}
	}
	return codes
}

// AsFields widens a concrete field slice for Engine.Schema.
func AsFields[F Field](fields []F) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}
