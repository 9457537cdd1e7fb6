package types

import (
	"time"

	"github.com/google/uuid"
)

// NewFieldID generates a UUIDv7 field identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewFieldID() FieldID {
	return FieldID(uuid.Must(uuid.NewV7()).String())
}

// NewRecordID generates a UUIDv7 record identifier.
func NewRecordID() RecordID {
	return RecordID(uuid.Must(uuid.NewV7()).String())
}

// ParseFieldID validates and converts a string to FieldID.
func ParseFieldID(s string) (FieldID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return FieldID(s), nil
}

// ParseRecordID validates and converts a string to RecordID.
// Rejects malformed UUIDs so transports never hit storage with garbage keys.
func ParseRecordID(s string) (RecordID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrInvalidRecordID
	}
	return RecordID(s), nil
}

// RecordIDTime extracts the creation timestamp embedded in a UUIDv7 record ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RecordIDTime(id RecordID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
