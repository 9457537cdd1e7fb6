// internal/visibility/dependency.go
package visibility

/*
 * Dependency resolution for reactive form wiring.
 *
 * Policies point "upwards" (state depends on country). A form needs the
 * inverse: when country changes, which fields must re-evaluate? The graph is
 * never stored; it is rebuilt from the flat field list on every
 * schema-generation pass in O(fields x conditions).
 *
 * Self-references are dropped: a field cannot make itself live.
 */

// ComputeReactiveFields maps each dependency code to the set of other field
// codes whose policies reference it. Codes nobody depends on are absent.
func ComputeReactiveFields[F Field](fields []F) map[string]CodeSet {
	reactive := make(map[string]CodeSet)
	for _, f := range fields {
		code := f.FieldCode()
		for dep := range f.VisibilityPolicy().Dependencies() {
			if dep == code {
				continue
			}
			dependents, ok := reactive[dep]
			if !ok {
				dependents = make(CodeSet)
				reactive[dep] = dependents
			}
			dependents.Add(code)
		}
	}
	return reactive
}

// IsLive reports whether editing code must trigger re-evaluation of other
// fields.
func IsLive(reactive map[string]CodeSet, code string) bool {
	return len(reactive[code]) > 0
}
