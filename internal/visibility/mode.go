// internal/visibility/mode.go
package visibility

import "strings"

/*
 * Visibility modes and condition combinators.
 *
 * Mode decides how the combined condition result maps to "shown":
 *   - always: field is shown regardless of conditions
 *   - if:     shown when conditions are met
 *   - unless: shown unless conditions are met (hidden when met)
 *
 * Logic combines per-condition results:
 *   - all: AND, vacuously true
 *   - any: OR, vacuously false
 *
 * Names are matched case-insensitively after trimming, like operators.
 * Parsing never fails. Unknown or empty names fall back to ModeAlways and
 * LogicAll so a configuration typo can never lock a field away.
 */

// Mode mirrors the stored "mode" string of a visibility config.
type Mode int

const (
	ModeAlways Mode = iota
	ModeShowIf
	ModeHideUnless
)

var modeNames = map[Mode]string{
	ModeAlways:     "always",
	ModeShowIf:     "if",
	ModeHideUnless: "unless",
}

// ParseMode converts a stored mode name, defaulting to ModeAlways.
func ParseMode(s string) Mode {
	m, _ := lookupMode(s)
	return m
}

// lookupMode reports whether s named a known mode; used by Lint.
func lookupMode(s string) (Mode, bool) {
	s = normalizeName(s)
	for m, name := range modeNames {
		if name == s {
			return m, true
		}
	}
	return ModeAlways, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// String returns the stored name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return modeNames[ModeAlways]
}

// RequiresConditions reports whether the mode consults conditions at all.
func (m Mode) RequiresConditions() bool {
	return m == ModeShowIf || m == ModeHideUnless
}

// ShouldShow maps the combined condition result to visibility.
func (m Mode) ShouldShow(conditionsMet bool) bool {
	switch m {
	case ModeShowIf:
		return conditionsMet
	case ModeHideUnless:
		return !conditionsMet
	default:
		return true
	}
}

// Logic mirrors the stored "logic" string of a visibility config.
type Logic int

const (
	LogicAll Logic = iota
	LogicAny
)

// ParseLogic converts a stored logic name, defaulting to LogicAll.
func ParseLogic(s string) Logic {
	l, _ := lookupLogic(s)
	return l
}

func lookupLogic(s string) (Logic, bool) {
	switch normalizeName(s) {
	case "all":
		return LogicAll, true
	case "any":
		return LogicAny, true
	default:
		return LogicAll, false
	}
}

// String returns the stored name of the logic.
func (l Logic) String() string {
	if l == LogicAny {
		return "any"
	}
	return "all"
}

// Evaluate combines condition results. Every result is inspected; callers
// have already evaluated all conditions.
func (l Logic) Evaluate(results []bool) bool {
	if l == LogicAny {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}
