package visibility

import (
	"testing"

	"github.com/solatis/fieldkeeper/internal/types"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"always", ModeAlways},
		{"if", ModeShowIf},
		{"unless", ModeHideUnless},
		{"", ModeAlways},
		{"sometimes", ModeAlways},
		{"IF", ModeShowIf},
		{" Unless ", ModeHideUnless},
		{"Always\n", ModeAlways},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMode_RequiresConditions(t *testing.T) {
	if ModeAlways.RequiresConditions() {
		t.Error("ModeAlways.RequiresConditions() = true, want false")
	}
	if !ModeShowIf.RequiresConditions() {
		t.Error("ModeShowIf.RequiresConditions() = false, want true")
	}
	if !ModeHideUnless.RequiresConditions() {
		t.Error("ModeHideUnless.RequiresConditions() = false, want true")
	}
}

func TestMode_ShouldShow(t *testing.T) {
	tests := []struct {
		mode Mode
		met  bool
		want bool
	}{
		{ModeAlways, true, true},
		{ModeAlways, false, true},
		{ModeShowIf, true, true},
		{ModeShowIf, false, false},
		{ModeHideUnless, true, false},
		{ModeHideUnless, false, true},
	}
	for _, tt := range tests {
		if got := tt.mode.ShouldShow(tt.met); got != tt.want {
			t.Errorf("%v.ShouldShow(%v) = %v, want %v", tt.mode, tt.met, got, tt.want)
		}
	}
}

func TestMode_String(t *testing.T) {
	for _, name := range []string{"always", "if", "unless"} {
		if got := ParseMode(name).String(); got != name {
			t.Errorf("ParseMode(%q).String() = %q", name, got)
		}
	}
	if got := Mode(42).String(); got != "always" {
		t.Errorf("Mode(42).String() = %q, want always", got)
	}
}

func TestLogic_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		logic   Logic
		results []bool
		want    bool
	}{
		{"all empty is vacuously true", LogicAll, nil, true},
		{"any empty is vacuously false", LogicAny, nil, false},
		{"all mixed", LogicAll, []bool{true, false}, false},
		{"any mixed", LogicAny, []bool{true, false}, true},
		{"all true", LogicAll, []bool{true, true, true}, true},
		{"any false", LogicAny, []bool{false, false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.logic.Evaluate(tt.results); got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.results, got, tt.want)
			}
		})
	}
}

func TestParseLogic(t *testing.T) {
	for _, in := range []string{"any", "ANY", " Any "} {
		if ParseLogic(in) != LogicAny {
			t.Errorf("ParseLogic(%q) != LogicAny", in)
		}
	}
	for _, in := range []string{"all", "", "either", " ALL"} {
		if ParseLogic(in) != LogicAll {
			t.Errorf("ParseLogic(%q) != LogicAll", in)
		}
	}
}

func TestLint_AcceptsMixedCaseNames(t *testing.T) {
	cfg := types.VisibilityConfig{
		Mode:  " IF",
		Logic: "Any",
		Conditions: []types.ConditionConfig{
			{FieldCode: "country", Operator: "EQUALS", Value: "US"},
		},
	}
	if issues := Lint("state", cfg); len(issues) != 0 {
		t.Errorf("Lint() = %v, want no issues", issues)
	}
	if got := Compile(cfg).Mode; got != ModeShowIf {
		t.Errorf("Compile().Mode = %v, want %v", got, ModeShowIf)
	}
}
