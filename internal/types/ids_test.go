package types

import (
	"strings"
	"testing"
	"time"
)

func TestNewRecordID(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewRecordID()

	if _, err := ParseRecordID(string(id)); err != nil {
		t.Fatalf("ParseRecordID(%q) error = %v", id, err)
	}
	ts := RecordIDTime(id)
	if ts.Before(before) {
		t.Errorf("RecordIDTime() = %v, want after %v", ts, before)
	}
}

func TestParseRecordID_Invalid(t *testing.T) {
	if _, err := ParseRecordID("not-a-uuid"); err != ErrInvalidRecordID {
		t.Errorf("ParseRecordID() error = %v, want ErrInvalidRecordID", err)
	}
	if got := RecordIDTime("nope"); !got.IsZero() {
		t.Errorf("RecordIDTime() = %v, want zero", got)
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"country", true},
		{"billing.country", true},
		{"tax_id-2", true},
		{"", false},
		{"Country", false},
		{"has space", false},
		{"a$b", false},
	}
	for _, tt := range tests {
		if got := ValidCode(tt.in, MaxCodeLength); got != tt.want {
			t.Errorf("ValidCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidCode(strings.Repeat("a", MaxCodeLength+1), MaxCodeLength) {
		t.Error("ValidCode() accepted over-long code")
	}
}

func TestField_Validate(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  error
	}{
		{"valid", Field{EntityType: "contact", Code: "billing.zip"}, nil},
		{"bad entity type", Field{EntityType: "Contact", Code: "zip"}, ErrInvalidEntityType},
		{"empty code", Field{EntityType: "contact"}, ErrInvalidFieldCode},
		{"code with space", Field{EntityType: "contact", Code: "first name"}, ErrInvalidFieldCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Validate(); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}
