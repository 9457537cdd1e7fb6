// internal/visibility/compile.go
package visibility

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/solatis/fieldkeeper/internal/types"
)

/*
 * Policy compilation from the stored configuration shape.
 *
 * Compile never fails. The stored shape is produced by an admin UI and may
 * be partial or from an older schema version:
 *   - unknown/missing mode  -> always
 *   - unknown/missing logic -> all
 *   - unknown operator      -> OpUnspecified (condition never matches)
 *
 * Lint reports the same situations, plus self-references, without changing
 * what Compile produces. The engine logs Lint output; nothing rejects it.
 *
 * Config() is the inverse of Compile for everything Compile can express, so
 * Compile(p.Config()) evaluates identically to p.
 */

// Compile converts a stored visibility config into an evaluable policy.
func Compile(cfg types.VisibilityConfig) *Policy {
	p := &Policy{
		Mode:          ParseMode(cfg.Mode),
		Logic:         ParseLogic(cfg.Logic),
		AlwaysPersist: cfg.AlwaysSave,
	}
	if len(cfg.Conditions) > 0 {
		p.Conditions = make([]Condition, 0, len(cfg.Conditions))
		for _, cc := range cfg.Conditions {
			p.Conditions = append(p.Conditions, Condition{
				FieldCode: cc.FieldCode,
				Operator:  ParseOperator(cc.Operator),
				Value:     cc.Value,
			})
		}
	}
	return p
}

// Config converts the policy back into its stored shape.
func (p *Policy) Config() types.VisibilityConfig {
	if p == nil {
		return types.VisibilityConfig{Mode: ModeAlways.String(), Logic: LogicAll.String()}
	}
	cfg := types.VisibilityConfig{
		Mode:       p.Mode.String(),
		Logic:      p.Logic.String(),
		AlwaysSave: p.AlwaysPersist,
	}
	if len(p.Conditions) > 0 {
		cfg.Conditions = make([]types.ConditionConfig, 0, len(p.Conditions))
		for _, c := range p.Conditions {
			cfg.Conditions = append(cfg.Conditions, types.ConditionConfig{
				FieldCode: c.FieldCode,
				Operator:  c.Operator.String(),
				Value:     c.Value,
			})
		}
	}
	return cfg
}

// ParseConfig decodes a stored JSON visibility config. Empty input and JSON
// null yield the zero config (always visible). Numbers decode as float64.
func ParseConfig(data []byte) (types.VisibilityConfig, error) {
	var cfg types.VisibilityConfig
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cfg, nil
	}
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return types.VisibilityConfig{}, fmt.Errorf("decode visibility config: %w", err)
	}
	return cfg, nil
}

// MarshalConfig encodes a visibility config for storage.
func MarshalConfig(cfg types.VisibilityConfig) ([]byte, error) {
	return json.Marshal(cfg)
}

// Issue is a non-fatal finding about a field's visibility config.
type Issue struct {
	Field   string // code of the field owning the config
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// Lint reports configuration mistakes that Compile silently defaults.
func Lint(code string, cfg types.VisibilityConfig) []Issue {
	var issues []Issue
	add := func(format string, args ...any) {
		issues = append(issues, Issue{Field: code, Message: fmt.Sprintf(format, args...)})
	}

	mode, modeOK := lookupMode(cfg.Mode)
	if cfg.Mode != "" && !modeOK {
		add("unknown mode %q, treated as %q", cfg.Mode, ModeAlways)
	}
	if cfg.Logic != "" {
		if _, ok := lookupLogic(cfg.Logic); !ok {
			add("unknown logic %q, treated as %q", cfg.Logic, LogicAll)
		}
	}
	if mode.RequiresConditions() && len(cfg.Conditions) == 0 {
		add("mode %q has no conditions, field is always hidden", mode)
	}
	if len(cfg.Conditions) > types.MaxConditionsPerPolicy {
		add("%d conditions exceeds recommended maximum of %d", len(cfg.Conditions), types.MaxConditionsPerPolicy)
	}
	for i, cc := range cfg.Conditions {
		if cc.FieldCode == "" {
			add("condition %d has no field_code, its value is always empty", i)
		}
		if cc.FieldCode == code && code != "" {
			add("condition %d references the field itself", i)
		}
		if ParseOperator(cc.Operator) == OpUnspecified {
			add("condition %d has unknown operator %q, it never matches", i, cc.Operator)
		}
	}
	return issues
}
