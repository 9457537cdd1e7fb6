package visibility

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/solatis/fieldkeeper/internal/types"
)

func TestCompile_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.VisibilityConfig
		wantMode  Mode
		wantLogic Logic
	}{
		{"zero config", types.VisibilityConfig{}, ModeAlways, LogicAll},
		{"known names", types.VisibilityConfig{Mode: "unless", Logic: "any"}, ModeHideUnless, LogicAny},
		{"unknown mode", types.VisibilityConfig{Mode: "maybe", Logic: "any"}, ModeAlways, LogicAny},
		{"unknown logic", types.VisibilityConfig{Mode: "if", Logic: "xor"}, ModeShowIf, LogicAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.cfg)
			if p.Mode != tt.wantMode {
				t.Errorf("Mode = %v, want %v", p.Mode, tt.wantMode)
			}
			if p.Logic != tt.wantLogic {
				t.Errorf("Logic = %v, want %v", p.Logic, tt.wantLogic)
			}
		})
	}
}

func TestCompile_AlwaysSaveRoundTrip(t *testing.T) {
	cfg := types.VisibilityConfig{
		Mode: "if",
		Conditions: []types.ConditionConfig{
			{FieldCode: "status", Operator: "equals", Value: "closed"},
		},
		AlwaysSave: true,
	}
	p := Compile(cfg)
	if !p.AlwaysPersist {
		t.Fatal("AlwaysPersist = false after compiling always_save config")
	}
	if p.Evaluate(Values{"status": "open"}) {
		t.Fatal("field should be hidden for status=open")
	}
	if !ShouldPersist(p, false) {
		t.Error("hidden always_save field is not persisted")
	}
	if !p.Config().AlwaysSave {
		t.Error("Config().AlwaysSave = false")
	}
}

func TestCompile_ConfigRoundTrip(t *testing.T) {
	cfg := types.VisibilityConfig{
		Mode:  "unless",
		Logic: "any",
		Conditions: []types.ConditionConfig{
			{FieldCode: "role", Operator: "in", Value: []any{"admin", "owner"}},
			{FieldCode: "age", Operator: "less_than", Value: 18.0},
		},
	}
	p := Compile(cfg)
	again := Compile(p.Config())
	if again.Mode != p.Mode || again.Logic != p.Logic || len(again.Conditions) != len(p.Conditions) {
		t.Fatalf("round trip changed policy: %+v -> %+v", p, again)
	}
	for i := range p.Conditions {
		if !p.Conditions[i].Equal(again.Conditions[i]) {
			t.Errorf("condition %d: %+v != %+v", i, p.Conditions[i], again.Conditions[i])
		}
	}
}

func TestConfig_NilPolicy(t *testing.T) {
	var p *Policy
	cfg := p.Config()
	if cfg.Mode != "always" || cfg.Logic != "all" {
		t.Errorf("nil policy Config() = %+v", cfg)
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Mode
		wantErr bool
	}{
		{"empty", "", ModeAlways, false},
		{"whitespace", "  \n", ModeAlways, false},
		{"null", "null", ModeAlways, false},
		{"show if", `{"mode":"if","logic":"all","conditions":[{"field_code":"country","operator":"equals","value":"US"}]}`, ModeShowIf, false},
		{"invalid json", `{"mode":`, ModeAlways, true},
		{"wrong shape", `[1,2,3]`, ModeAlways, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "decode visibility config") {
					t.Errorf("error %q not wrapped", err)
				}
				var syntaxErr *json.SyntaxError
				var typeErr *json.UnmarshalTypeError
				if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
					t.Errorf("error %v does not wrap the decode error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Compile(cfg).Mode; got != tt.want {
				t.Errorf("Mode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseConfig_NumbersDecodeAsFloat(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"mode":"if","conditions":[{"field_code":"age","operator":"greater_than","value":18}]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := Compile(cfg)
	if !p.Evaluate(Values{"age": 30}) {
		t.Error("age 30 > 18 should be visible")
	}
	if p.Evaluate(Values{"age": "12"}) {
		t.Error("age 12 > 18 should be hidden")
	}
}

func TestMarshalConfig(t *testing.T) {
	cfg := types.VisibilityConfig{
		Mode:       "if",
		Logic:      "any",
		Conditions: []types.ConditionConfig{{FieldCode: "a", Operator: "is_empty"}},
		AlwaysSave: true,
	}
	raw, err := MarshalConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"mode":"if"`, `"logic":"any"`, `"field_code":"a"`, `"always_save":true`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("MarshalConfig() = %s, missing %s", raw, want)
		}
	}
	back, err := ParseConfig(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.Mode != cfg.Mode || back.Logic != cfg.Logic || !back.AlwaysSave || len(back.Conditions) != 1 {
		t.Errorf("ParseConfig(MarshalConfig()) = %+v", back)
	}
}

func TestLint(t *testing.T) {
	tests := []struct {
		name string
		code string
		cfg  types.VisibilityConfig
		want []string // substrings, one per expected issue
	}{
		{"clean", "state", types.VisibilityConfig{
			Mode:       "if",
			Conditions: []types.ConditionConfig{{FieldCode: "country", Operator: "equals", Value: "US"}},
		}, nil},
		{"zero config is clean", "notes", types.VisibilityConfig{}, nil},
		{"unknown mode", "a", types.VisibilityConfig{Mode: "sometimes"}, []string{"unknown mode"}},
		{"unknown logic", "a", types.VisibilityConfig{Logic: "xor"}, []string{"unknown logic"}},
		{"conditional without conditions", "a", types.VisibilityConfig{Mode: "unless"}, []string{"has no conditions"}},
		{"self reference", "a", types.VisibilityConfig{
			Mode:       "if",
			Conditions: []types.ConditionConfig{{FieldCode: "a", Operator: "is_empty"}},
		}, []string{"references the field itself"}},
		{"empty field code and bad operator", "a", types.VisibilityConfig{
			Mode:       "if",
			Conditions: []types.ConditionConfig{{Operator: "like"}},
		}, []string{"no field_code", "unknown operator"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Lint(tt.code, tt.cfg)
			if len(issues) != len(tt.want) {
				t.Fatalf("Lint() = %v, want %d issues", issues, len(tt.want))
			}
			for i, want := range tt.want {
				if !strings.Contains(issues[i].Message, want) {
					t.Errorf("issue %d = %q, want substring %q", i, issues[i].Message, want)
				}
				if issues[i].Field != tt.code {
					t.Errorf("issue %d field = %q, want %q", i, issues[i].Field, tt.code)
				}
			}
		})
	}
}

func TestLint_TooManyConditions(t *testing.T) {
	cfg := types.VisibilityConfig{Mode: "if"}
	for i := 0; i <= types.MaxConditionsPerPolicy; i++ {
		cfg.Conditions = append(cfg.Conditions, types.ConditionConfig{FieldCode: "x", Operator: "is_empty"})
	}
	issues := Lint("y", cfg)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "exceeds") {
		t.Errorf("Lint() = %v, want one limit issue", issues)
	}
	if got := issues[0].String(); !strings.HasPrefix(got, "y: ") {
		t.Errorf("Issue.String() = %q", got)
	}
}
