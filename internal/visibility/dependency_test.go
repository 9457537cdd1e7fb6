package visibility

import (
	"testing"
)

func TestComputeReactiveFields(t *testing.T) {
	fields := []Definition{
		{Code: "country"},
		showIf("state", "country", OpEquals, "US"),
	}
	reactive := ComputeReactiveFields(fields)
	if len(reactive) != 1 {
		t.Fatalf("reactive = %v, want one key", reactive)
	}
	if got := reactive["country"].Sorted(); !equalStrings(got, []string{"state"}) {
		t.Errorf(`reactive["country"] = %v, want [state]`, got)
	}
	if IsLive(reactive, "state") {
		t.Error("state should not be live")
	}
	if !IsLive(reactive, "country") {
		t.Error("country should be live")
	}
}

func TestComputeReactiveFields_Shapes(t *testing.T) {
	fields := []Definition{
		{Code: "country"},
		showIf("state", "country", OpEquals, "US"),
		showIf("zip", "country", OpIn, []any{"US", "CA"}),
		showIf("county", "state", OpIsNotEmpty, nil),
		showIf("loop", "loop", OpIsEmpty, nil),
		showIf("coupon", "promo_code", OpIsNotEmpty, nil),
		{Code: "ignored", Policy: &Policy{
			Mode:       ModeAlways,
			Conditions: []Condition{{FieldCode: "country", Operator: OpEquals, Value: "x"}},
		}},
	}
	reactive := ComputeReactiveFields(fields)

	want := map[string][]string{
		"country":    {"state", "zip"},
		"state":      {"county"},
		"promo_code": {"coupon"},
	}
	if len(reactive) != len(want) {
		t.Fatalf("reactive keys = %v, want %v", reactive, want)
	}
	for code, deps := range want {
		if got := reactive[code].Sorted(); !equalStrings(got, deps) {
			t.Errorf("reactive[%q] = %v, want %v", code, got, deps)
		}
	}
	if IsLive(reactive, "loop") {
		t.Error("self-reference made a field live")
	}
}

func TestComputeReactiveFields_Empty(t *testing.T) {
	if got := ComputeReactiveFields[Definition](nil); len(got) != 0 {
		t.Errorf("ComputeReactiveFields(nil) = %v", got)
	}
	if IsLive(nil, "x") {
		t.Error("IsLive(nil) = true")
	}
}

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name   string
		fields []Definition
		want   [][]string
	}{
		{"acyclic", []Definition{
			{Code: "a"},
			showIf("b", "a", OpIsNotEmpty, nil),
			showIf("c", "b", OpIsNotEmpty, nil),
		}, nil},
		{"self reference", []Definition{
			showIf("a", "a", OpIsEmpty, nil),
		}, [][]string{{"a"}}},
		{"two cycle", []Definition{
			showIf("b", "a", OpIsEmpty, nil),
			showIf("a", "b", OpIsEmpty, nil),
		}, [][]string{{"a", "b"}}},
		{"three cycle rotated to smallest", []Definition{
			showIf("c", "a", OpIsEmpty, nil),
			showIf("b", "c", OpIsEmpty, nil),
			showIf("a", "b", OpIsEmpty, nil),
		}, [][]string{{"a", "b", "c"}}},
		{"foreign dependency ignored", []Definition{
			showIf("a", "external", OpIsEmpty, nil),
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindCycles(tt.fields)
			if len(got) != len(tt.want) {
				t.Fatalf("FindCycles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !equalStrings(got[i], tt.want[i]) {
					t.Errorf("cycle %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
