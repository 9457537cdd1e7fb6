package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/core/store"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

/*
 * Wire shapes shared by the gRPC and HTTP transports.
 *
 * The gRPC service carries these as google.protobuf.Struct; the HTTP API
 * carries them as plain JSON. Both go through encoding/json so field names
 * and number handling are identical: record values decode as float64,
 * string, bool, nil, []any or map[string]any, the same shapes the store
 * persists.
 */

// EntityRequest addresses one entity type.
type EntityRequest struct {
	EntityType string `json:"entity_type"`
}

// RecordRequest addresses one record of an entity type.
type RecordRequest struct {
	EntityType string `json:"entity_type"`
	RecordID   string `json:"record_id"`
}

// EvaluateRequest carries unsaved form state.
type EvaluateRequest struct {
	EntityType string         `json:"entity_type"`
	Values     map[string]any `json:"values"`
}

// SaveRecordRequest carries submitted values. An empty RecordID creates
// a new record.
type SaveRecordRequest struct {
	EntityType string         `json:"entity_type"`
	RecordID   string         `json:"record_id"`
	Values     map[string]any `json:"values"`
}

// FieldView is a field definition as clients render it.
type FieldView struct {
	ID         string                 `json:"id"`
	Code       string                 `json:"code"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Section    string                 `json:"section,omitempty"`
	SortOrder  int                    `json:"sort_order"`
	Visibility types.VisibilityConfig `json:"visibility"`
}

// DecisionView is the visibility of one field.
type DecisionView struct {
	Code    string `json:"code"`
	Visible bool   `json:"visible"`
	Live    bool   `json:"live"`
	Persist bool   `json:"persist"`
}

// FieldsResponse lists an entity type's fields.
type FieldsResponse struct {
	EntityType string      `json:"entity_type"`
	Fields     []FieldView `json:"fields"`
}

// EvaluateResponse is the outcome of a reactive evaluation.
type EvaluateResponse struct {
	EntityType string         `json:"entity_type"`
	Decisions  []DecisionView `json:"decisions"`
	Visible    []string       `json:"visible"`
}

// DependenciesResponse is the reactive map of an entity type.
type DependenciesResponse struct {
	EntityType string              `json:"entity_type"`
	Reactive   map[string][]string `json:"reactive"`
	Live       []string            `json:"live"`
	Cycles     [][]string          `json:"cycles"`
}

// VisibleRecordResponse is the visible part of a persisted record.
type VisibleRecordResponse struct {
	EntityType string         `json:"entity_type"`
	RecordID   string         `json:"record_id"`
	Fields     []FieldView    `json:"fields"`
	Values     map[string]any `json:"values"`
}

// SaveRecordResponse reports what a save wrote.
type SaveRecordResponse struct {
	EntityType string   `json:"entity_type"`
	RecordID   string   `json:"record_id"`
	Created    bool     `json:"created"`
	Written    []string `json:"written"`
	Suppressed []string `json:"suppressed"`
	Unknown    []string `json:"unknown"`
}

// nonNil keeps empty lists as [] instead of null on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NewFieldView converts a bound field. The visibility block is the
// compiled policy's canonical form, so defaults are explicit.
func NewFieldView(f visibility.BoundField) FieldView {
	return FieldView{
		ID:         string(f.ID),
		Code:       f.Code,
		Name:       f.Name,
		Type:       f.Type,
		Section:    f.Section,
		SortOrder:  f.SortOrder,
		Visibility: f.Policy.Config(),
	}
}

// NewFieldsResponse converts a field list.
func NewFieldsResponse(entity types.EntityType, fields []visibility.BoundField) *FieldsResponse {
	resp := &FieldsResponse{EntityType: string(entity), Fields: make([]FieldView, 0, len(fields))}
	for _, f := range fields {
		resp.Fields = append(resp.Fields, NewFieldView(f))
	}
	return resp
}

// NewEvaluateResponse converts an evaluation.
func NewEvaluateResponse(entity types.EntityType, ev *service.Evaluation) *EvaluateResponse {
	resp := &EvaluateResponse{
		EntityType: string(entity),
		Decisions:  make([]DecisionView, 0, len(ev.Decisions)),
		Visible:    nonNil(ev.Visible),
	}
	for _, d := range ev.Decisions {
		resp.Decisions = append(resp.Decisions, DecisionView(d))
	}
	return resp
}

// NewDependenciesResponse converts a dependency view.
func NewDependenciesResponse(entity types.EntityType, deps *service.Dependencies) *DependenciesResponse {
	resp := &DependenciesResponse{
		EntityType: string(entity),
		Reactive:   deps.Reactive,
		Live:       nonNil(deps.Live),
		Cycles:     deps.Cycles,
	}
	if resp.Reactive == nil {
		resp.Reactive = map[string][]string{}
	}
	if resp.Cycles == nil {
		resp.Cycles = [][]string{}
	}
	return resp
}

// NewVisibleRecordResponse converts a record view.
func NewVisibleRecordResponse(entity types.EntityType, view *service.RecordView) *VisibleRecordResponse {
	resp := &VisibleRecordResponse{
		EntityType: string(entity),
		RecordID:   string(view.Record.ID),
		Fields:     make([]FieldView, 0, len(view.Fields)),
		Values:     view.Values,
	}
	for _, f := range view.Fields {
		resp.Fields = append(resp.Fields, NewFieldView(f))
	}
	return resp
}

// NewSaveRecordResponse converts a save result.
func NewSaveRecordResponse(entity types.EntityType, res *store.SaveResult) *SaveRecordResponse {
	return &SaveRecordResponse{
		EntityType: string(entity),
		RecordID:   string(res.RecordID),
		Created:    res.Created,
		Written:    nonNil(res.Written),
		Suppressed: nonNil(res.Suppressed),
		Unknown:    nonNil(res.Unknown),
	}
}

// ParseEntity validates an entity type taken off the wire.
func ParseEntity(s string) (types.EntityType, error) {
	if !types.ValidCode(s, types.MaxEntityTypeLength) {
		return "", types.ErrInvalidEntityType
	}
	return types.EntityType(strings.Clone(s)), nil
}

// ParseSaveRecordID validates a record ID for a save; empty allocates one.
func ParseSaveRecordID(s string) (types.RecordID, error) {
	if s == "" {
		return types.NewRecordID(), nil
	}
	return types.ParseRecordID(strings.Clone(s))
}

// EncodeStruct converts a wire value into a protobuf Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

// DecodeStruct converts a protobuf Struct into a wire value.
func DecodeStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return nil
}
