// internal/visibility/policy.go
package visibility

import "strings"

/*
 * Visibility policy: the evaluable form of a field's visibility config.
 *
 * Evaluation:
 *   1. Mode without conditions (or no conditions at all) -> Mode == always
 *   2. Every condition is evaluated in order against one value source,
 *      missing dependencies are nil
 *   3. Logic combines the results
 *   4. Mode maps the combined result to shown/hidden
 *
 * No short-circuiting: all conditions run even under any/all, which keeps
 * results independent of condition order and keeps operators side-effect
 * free by contract.
 *
 * A nil *Policy is valid and means "always visible, never force-saved".
 */

// Policy decides if a field is shown and whether its value is persisted
// while hidden.
type Policy struct {
	Mode          Mode
	Logic         Logic
	Conditions    []Condition
	AlwaysPersist bool
}

// RequiresConditions reports whether the policy's mode consults conditions.
func (p *Policy) RequiresConditions() bool {
	if p == nil {
		return false
	}
	return p.Mode.RequiresConditions()
}

// Dependencies returns the de-duplicated codes referenced by conditions.
// Empty when the mode ignores conditions.
func (p *Policy) Dependencies() CodeSet {
	deps := make(CodeSet)
	if !p.RequiresConditions() {
		return deps
	}
	for _, c := range p.Conditions {
		deps.Add(c.FieldCode)
	}
	return deps
}

// Evaluate reports whether the field is visible given the value source.
func (p *Policy) Evaluate(src ValueSource) bool {
	if p == nil {
		return true
	}
	if !p.RequiresConditions() || len(p.Conditions) == 0 {
		return p.Mode == ModeAlways
	}
	results := make([]bool, len(p.Conditions))
	for i, c := range p.Conditions {
		results[i] = c.Evaluate(src)
	}
	return p.Mode.ShouldShow(p.Logic.Evaluate(results))
}

// PersistsWhenHidden exposes the always-save flag for the save pipeline.
func (p *Policy) PersistsWhenHidden() bool {
	return p != nil && p.AlwaysPersist
}

// String renders the policy for humans, e.g. "if any(role equals admin, role equals owner)".
func (p *Policy) String() string {
	if p == nil || !p.RequiresConditions() {
		return ModeAlways.String()
	}
	parts := make([]string, len(p.Conditions))
	for i, c := range p.Conditions {
		parts[i] = c.String()
	}
	s := p.Mode.String() + " " + p.Logic.String() + "(" + strings.Join(parts, ", ") + ")"
	if p.AlwaysPersist {
		s += " [always_save]"
	}
	return s
}
