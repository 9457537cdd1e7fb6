// Package types provides domain models shared across FieldKeeper components.
//
// Zero-dependency design: types.go, fields.go and errors.go use only the
// standard library so the visibility engine can be embedded without pulling
// in storage or transport deps. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

// FieldID represents a UUIDv7 field definition identifier.
// String alias enables type safety while maintaining JSON string serialization.
type FieldID string

// RecordID represents a UUIDv7 record identifier.
type RecordID string

// EntityType names the kind of record a field is attached to (e.g. "contact").
type EntityType string

// Resource limits enforced at the storage and transport boundaries.
const (
	// MaxPathDepth bounds dotted-path resolution into nested record values.
	// 16 levels handles deeply nested JSON without recursion concerns.
	MaxPathDepth = 16

	// MaxCodeLength limits field codes; codes are used as map keys and
	// column values, 64 chars accommodates snake_case names with prefixes.
	MaxCodeLength = 64

	// MaxEntityTypeLength limits entity type names.
	MaxEntityTypeLength = 64

	// MaxConditionsPerPolicy is the point past which Lint reports a policy
	// as suspicious. Evaluation is linear so nothing is rejected.
	MaxConditionsPerPolicy = 64
)

// ValidCode reports whether s is usable as a field code or entity type:
// non-empty, bounded, lowercase alphanumerics plus '_', '-' and '.'.
func ValidCode(s string, maxLen int) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}
