// Package service implements FieldKeeper's operations independent of
// transport. The gRPC and HTTP layers decode requests, call a Service
// method and encode the result; every method opens one trace span.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/solatis/fieldkeeper/internal/core/logging"
	"github.com/solatis/fieldkeeper/internal/core/store"
	"github.com/solatis/fieldkeeper/internal/core/telemetry"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

// Service is safe for concurrent use.
type Service struct {
	store  *store.Store
	engine *visibility.Engine
	tel    *telemetry.Handle
	logger *slog.Logger
}

// New creates a service. A nil telemetry handle disables tracing.
func New(st *store.Store, engine *visibility.Engine, tel *telemetry.Handle, logger *slog.Logger) *Service {
	if tel == nil {
		tel = telemetry.Noop()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{store: st, engine: engine, tel: tel, logger: logger.With("component", "service")}
}

func entityAttr(entity types.EntityType) attribute.KeyValue {
	return attribute.String("fieldkeeper.entity_type", string(entity))
}

// Fields returns an entity type's fields in display order.
func (s *Service) Fields(ctx context.Context, entity types.EntityType) (fields []visibility.BoundField, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.fields", entityAttr(entity))
	defer func() { telemetry.End(span, err) }()

	fields, err = s.store.Fields.ListFields(ctx, entity)
	if err == nil {
		span.SetAttributes(attribute.Int("fieldkeeper.field_count", len(fields)))
	}
	return fields, err
}

func (s *Service) schema(ctx context.Context, entity types.EntityType) ([]visibility.BoundField, *visibility.Schema, error) {
	fields, err := s.store.Fields.ListFields(ctx, entity)
	if err != nil {
		return nil, nil, err
	}
	return fields, s.engine.Schema(visibility.AsFields(fields)), nil
}

// Evaluation is the visibility of every field for one form state.
type Evaluation struct {
	Decisions []visibility.Decision
	Visible   []string
}

// NewEvaluation collects the visible codes of decisions, in order.
func NewEvaluation(decisions []visibility.Decision) *Evaluation {
	ev := &Evaluation{Decisions: decisions}
	for _, d := range decisions {
		if d.Visible {
			ev.Visible = append(ev.Visible, d.Code)
		}
	}
	return ev
}

// Evaluate decides visibility reactively against unsaved form state.
// values may use dotted codes or nested objects.
func (s *Service) Evaluate(ctx context.Context, entity types.EntityType, values map[string]any) (ev *Evaluation, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.evaluate", entityAttr(entity))
	defer func() { telemetry.End(span, err) }()

	_, schema, err := s.schema(ctx, entity)
	if err != nil {
		return nil, err
	}
	form := visibility.NewJSONRecord(values)
	ev = NewEvaluation(schema.DecideLive(form.Value))
	span.SetAttributes(attribute.Int("fieldkeeper.visible_count", len(ev.Visible)))
	return ev, nil
}

// Dependencies describes how an entity type's fields react to each other.
type Dependencies struct {
	Reactive map[string][]string // dependency code -> dependent field codes
	Live     []string            // fields whose edits re-evaluate others
	Cycles   [][]string
}

// ReactiveFields builds the dependency view used to wire live forms.
func (s *Service) ReactiveFields(ctx context.Context, entity types.EntityType) (deps *Dependencies, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.reactive_fields", entityAttr(entity))
	defer func() { telemetry.End(span, err) }()

	_, schema, err := s.schema(ctx, entity)
	if err != nil {
		return nil, err
	}
	return &Dependencies{
		Reactive: schema.Reactive(),
		Live:     schema.LiveCodes(),
		Cycles:   schema.Cycles(),
	}, nil
}

// RecordView is the visible part of a persisted record.
type RecordView struct {
	Record *store.Record
	Fields []visibility.BoundField
	Values map[string]any // values of visible fields only
}

// VisibleRecordFields evaluates a persisted record eagerly and returns the
// fields to render with their stored values.
func (s *Service) VisibleRecordFields(ctx context.Context, entity types.EntityType, id types.RecordID) (view *RecordView, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.visible_record_fields",
		entityAttr(entity), attribute.String("fieldkeeper.record_id", string(id)))
	defer func() { telemetry.End(span, err) }()

	fields, err := s.store.Fields.ListFields(ctx, entity)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Records.GetRecord(ctx, entity, id)
	if err != nil {
		return nil, err
	}

	view = &RecordView{
		Record: rec,
		Fields: visibility.VisibleFields(rec.Values, fields),
		Values: make(map[string]any),
	}
	for _, f := range view.Fields {
		if v, ok := rec.Values[f.Code]; ok {
			view.Values[f.Code] = v
		}
	}
	return view, nil
}

// SaveRecord stores submitted values, dropping values of hidden fields.
func (s *Service) SaveRecord(ctx context.Context, entity types.EntityType, id types.RecordID, values map[string]any) (res *store.SaveResult, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.save_record",
		entityAttr(entity), attribute.String("fieldkeeper.record_id", string(id)))
	defer func() { telemetry.End(span, err) }()

	res, err = s.store.SaveRecord(ctx, entity, id, values)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("fieldkeeper.written", len(res.Written)),
		attribute.Int("fieldkeeper.suppressed", len(res.Suppressed)),
	)
	return res, nil
}

// ImportResult reports the outcome of a bulk field import.
type ImportResult struct {
	Fields []types.Field
	Issues []visibility.Issue
	Cycles map[types.EntityType][][]string
}

// ImportFields validates then upserts a batch of field definitions in one
// transaction. Validation covers the whole batch before anything is written; lint
// issues and dependency cycles are reported, never rejected.
func (s *Service) ImportFields(ctx context.Context, fields []types.Field) (res *ImportResult, err error) {
	ctx, span := s.tel.Start(ctx, "fieldkeeper.import_fields", attribute.Int("fieldkeeper.field_count", len(fields)))
	defer func() { telemetry.End(span, err) }()

	seen := make(map[types.EntityType]visibility.CodeSet)
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("field %s/%s: %w", f.EntityType, f.Code, err)
		}
		codes, ok := seen[f.EntityType]
		if !ok {
			codes = make(visibility.CodeSet)
			seen[f.EntityType] = codes
		}
		if codes.Has(f.Code) {
			return nil, fmt.Errorf("field %s/%s: %w", f.EntityType, f.Code, types.ErrDuplicateFieldCode)
		}
		codes.Add(f.Code)
	}

	saved, err := s.store.Fields.UpsertFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	res = &ImportResult{Fields: saved, Cycles: make(map[types.EntityType][][]string)}
	for _, f := range fields {
		res.Issues = append(res.Issues, visibility.Lint(f.Code, f.Visibility)...)
	}

	entities := make([]string, 0, len(seen))
	for entity := range seen {
		entities = append(entities, string(entity))
	}
	sort.Strings(entities)
	for _, entity := range entities {
		_, schema, err := s.schema(ctx, types.EntityType(entity))
		if err != nil {
			return nil, err
		}
		if cycles := schema.Cycles(); len(cycles) > 0 {
			res.Cycles[types.EntityType(entity)] = cycles
		}
	}

	s.logger.Info("fields imported", "count", len(res.Fields), "issues", len(res.Issues))
	return res, nil
}
