// internal/types/fields.go
package types

/*
 * Domain types for custom field definitions.
 *
 * Provides Field, VisibilityConfig and ConditionConfig used by the storage
 * layer, the transports and internal/visibility. These types are the wire
 * shape of a field definition; compilation into an evaluable policy happens
 * in internal/visibility so this package stays dependency free.
 *
 * Key types:
 *   - Field: a custom field attached to an entity type
 *   - VisibilityConfig: conditional visibility rules as stored/transmitted
 *   - ConditionConfig: one rule (dependency code, operator, literal)
 *
 * Unknown or missing mode/logic values are legal here; the engine defaults
 * them when compiling.
 */

// Field is a user-configurable attribute attached to an entity type.
type Field struct {
	ID         FieldID          `json:"id" yaml:"id,omitempty"`
	EntityType EntityType       `json:"entity_type" yaml:"entity_type"`
	Code       string           `json:"code" yaml:"code"`
	Name       string           `json:"name" yaml:"name"`
	Type       string           `json:"type" yaml:"type"`
	Section    string           `json:"section,omitempty" yaml:"section,omitempty"`
	SortOrder  int              `json:"sort_order" yaml:"sort_order"`
	Visibility VisibilityConfig `json:"visibility" yaml:"visibility"`
}

// VisibilityConfig is the stored shape of a field's visibility policy.
type VisibilityConfig struct {
	Mode       string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	Logic      string            `json:"logic,omitempty" yaml:"logic,omitempty"`
	Conditions []ConditionConfig `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	AlwaysSave bool              `json:"always_save,omitempty" yaml:"always_save,omitempty"`
}

// ConditionConfig is the stored shape of one visibility condition.
type ConditionConfig struct {
	FieldCode string `json:"field_code" yaml:"field_code"`
	Operator  string `json:"operator" yaml:"operator"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Validate checks the entity type and code against the allowed charset
// and length limits. Visibility rules are never rejected here.
func (f Field) Validate() error {
	if !ValidCode(string(f.EntityType), MaxEntityTypeLength) {
		return ErrInvalidEntityType
	}
	if !ValidCode(f.Code, MaxCodeLength) {
		return ErrInvalidFieldCode
	}
	return nil
}
