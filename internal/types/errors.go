package types

import "errors"

// Sentinel errors for FieldKeeper operations.
var (
	// ErrFieldNotFound indicates no field with the given code exists for the entity type.
	ErrFieldNotFound = errors.New("field not found")

	// ErrRecordNotFound indicates the record has no stored row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateFieldCode indicates two fields of one entity type share a code.
	ErrDuplicateFieldCode = errors.New("duplicate field code")

	// ErrInvalidFieldCode indicates a field code outside the allowed charset or length.
	ErrInvalidFieldCode = errors.New("invalid field code")

	// ErrInvalidEntityType indicates an entity type outside the allowed charset or length.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidRecordID indicates a malformed record identifier.
	ErrInvalidRecordID = errors.New("invalid record id")

	// ErrTooManyValues indicates a save request exceeds the configured batch size.
	ErrTooManyValues = errors.New("too many values in request")

	// ErrTooManyFields indicates an entity type exceeds the configured field limit.
	ErrTooManyFields = errors.New("too many fields for entity type")

	// ErrStorage wraps failures of the backing database.
	ErrStorage = errors.New("database error")

	// ErrPathTooDeep indicates a dotted value path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("value path exceeds maximum depth")
)
