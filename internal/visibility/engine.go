package visibility

import (
	"io"
	"log/slog"

	"github.com/solatis/fieldkeeper/internal/types"
)

// Engine compiles stored visibility configs and builds per-pass schemas.
// It holds no per-record state and is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an engine that reports configuration issues to logger.
// A nil logger discards them.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger.With("component", "visibility")}
}

// Compile lints and compiles a stored config. Lint findings are logged at
// warn level and never alter the result.
func (e *Engine) Compile(code string, cfg types.VisibilityConfig) *Policy {
	for _, issue := range Lint(code, cfg) {
		e.logger.Warn("visibility config issue", "field", issue.Field, "issue", issue.Message)
	}
	return Compile(cfg)
}

// CompileJSON decodes and compiles a stored JSON config. Undecodable input
// yields an always-visible policy so the field stays reachable.
func (e *Engine) CompileJSON(code string, raw []byte) *Policy {
	cfg, err := ParseConfig(raw)
	if err != nil {
		e.logger.Warn("unreadable visibility config, field always visible", "field", code, "error", err)
		return Compile(types.VisibilityConfig{})
	}
	return e.Compile(code, cfg)
}

// BoundField pairs a stored field definition with its compiled policy.
type BoundField struct {
	types.Field
	Policy *Policy
}

// FieldCode implements Field.
func (b BoundField) FieldCode() string { return b.Code }

// VisibilityPolicy implements Field.
func (b BoundField) VisibilityPolicy() *Policy { return b.Policy }

// Bind compiles f's visibility config without linting it. Stored fields
// are linted once when written, not on every read.
func (e *Engine) Bind(f types.Field) BoundField {
	return BoundField{Field: f, Policy: Compile(f.Visibility)}
}

// LintAll logs the lint findings of every field and returns them.
func (e *Engine) LintAll(fields []types.Field) []Issue {
	var issues []Issue
	for _, f := range fields {
		for _, issue := range Lint(f.Code, f.Visibility) {
			e.logger.Warn("visibility config issue", "field", issue.Field, "issue", issue.Message)
			issues = append(issues, issue)
		}
	}
	return issues
}

// BindAll compiles every field, keeping order.
func (e *Engine) BindAll(fields []types.Field) []BoundField {
	out := make([]BoundField, len(fields))
	for i, f := range fields {
		out[i] = e.Bind(f)
	}
	return out
}

// Schema builds the dependency view of one entity type's fields for one
// schema-generation pass. Cycles are logged, not rejected.
func (e *Engine) Schema(fields []Field) *Schema {
	s := newSchema(fields)
	for _, cycle := range s.cycles {
		e.logger.Warn("visibility dependency cycle, fields may flicker", "cycle", cycle)
	}
	return s
}

// Decision is the outcome for one field in one evaluation pass.
type Decision struct {
	Code    string
	Visible bool
	Live    bool // editing this field re-evaluates others
	Persist bool // a submitted value must be written
}

// Schema is an immutable view over a field list: order, reactive map and
// cycles. Build one per schema-generation pass.
type Schema struct {
	fields   []Field
	index    map[string]int
	reactive map[string]CodeSet
	cycles   [][]string
}

func newSchema(fields []Field) *Schema {
	s := &Schema{
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if _, dup := s.index[f.FieldCode()]; !dup {
			s.index[f.FieldCode()] = i
		}
	}
	s.reactive = ComputeReactiveFields(s.fields)
	s.cycles = FindCycles(s.fields)
	return s
}

// Fields returns the fields in schema order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks a field up by code.
func (s *Schema) Field(code string) (Field, bool) {
	i, ok := s.index[code]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Live reports whether code must push its value eagerly.
func (s *Schema) Live(code string) bool {
	return IsLive(s.reactive, code)
}

// LiveCodes lists live field codes in schema order.
func (s *Schema) LiveCodes() []string {
	var codes []string
	for _, f := range s.fields {
		if s.Live(f.FieldCode()) {
			codes = append(codes, f.FieldCode())
		}
	}
	return codes
}

// Dependents lists, sorted, the fields re-evaluated when code changes.
func (s *Schema) Dependents(code string) []string {
	return s.reactive[code].Sorted()
}

// Reactive returns the dependency map with sorted dependents.
func (s *Schema) Reactive() map[string][]string {
	out := make(map[string][]string, len(s.reactive))
	for code, deps := range s.reactive {
		out[code] = deps.Sorted()
	}
	return out
}

// Cycles returns the dependency cycles found when the schema was built.
func (s *Schema) Cycles() [][]string {
	return s.cycles
}

// Visible runs eager evaluation against a materialised record.
func (s *Schema) Visible(record ValueSource) []Field {
	return VisibleFields(record, s.fields)
}

// Decide evaluates every field against one snapshot of record.
func (s *Schema) Decide(record ValueSource) []Decision {
	snap := Snapshot(record, s.fields)
	out := make([]Decision, len(s.fields))
	for i, f := range s.fields {
		p := f.VisibilityPolicy()
		visible := p.Evaluate(snap)
		out[i] = Decision{
			Code:    f.FieldCode(),
			Visible: visible,
			Live:    s.Live(f.FieldCode()),
			Persist: ShouldPersist(p, visible),
		}
	}
	return out
}

// DecideLive evaluates every field reactively against live form state.
func (s *Schema) DecideLive(get ValueFunc) []Decision {
	out := make([]Decision, len(s.fields))
	for i, f := range s.fields {
		visible := EvaluateVisibility(f, s.fields, get)
		out[i] = Decision{
			Code:    f.FieldCode(),
			Visible: visible,
			Live:    s.Live(f.FieldCode()),
			Persist: ShouldPersist(f.VisibilityPolicy(), visible),
		}
	}
	return out
}

// Evaluate decides one field reactively. ok is false for unknown codes.
func (s *Schema) Evaluate(code string, get ValueFunc) (visible, ok bool) {
	f, ok := s.Field(code)
	if !ok {
		return false, false
	}
	return EvaluateVisibility(f, s.fields, get), true
}

// Suppressed lists codes whose submitted values must not be saved.
func (s *Schema) Suppressed(record ValueSource) []string {
	return Suppressed(record, s.fields)
}
