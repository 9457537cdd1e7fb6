// Package api provides the gRPC transport for FieldKeeper's visibility API.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/fieldkeeper/internal/core/auth"
	"github.com/solatis/fieldkeeper/internal/core/logging"
	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/types"
)

// VisibilityService implements VisibilityServiceServer.
// Thin orchestration layer: decode the Struct, call the service, encode
// the result, map errors to status codes.
type VisibilityService struct {
	svc    *service.Service
	logger *slog.Logger
}

var _ VisibilityServiceServer = (*VisibilityService)(nil)

// NewVisibilityService creates service instance with dependencies.
func NewVisibilityService(svc *service.Service, logger *slog.Logger) (*VisibilityService, error) {
	if svc == nil {
		return nil, fmt.Errorf("svc cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &VisibilityService{svc: svc, logger: logger.With("component", "grpc")}, nil
}

// fail logs server-side failures and converts err to a status.
func (s *VisibilityService) fail(ctx context.Context, method string, err error) error {
	st := Status(err)
	if c := Code(err); c == codes.Internal || c == codes.Unavailable {
		s.logger.ErrorContext(ctx, "request failed",
			"method", method, "api_key_id", auth.APIKeyIDFromContext(ctx), "error", err)
	}
	return st
}

// Evaluate decides visibility against unsaved form state.
func (s *VisibilityService) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EvaluateRequest
	if err := DecodeStruct(in, &req); err != nil {
		return nil, Status(err)
	}
	entity, err := ParseEntity(req.EntityType)
	if err != nil {
		return nil, Status(err)
	}
	ev, err := s.svc.Evaluate(ctx, entity, req.Values)
	if err != nil {
		return nil, s.fail(ctx, "Evaluate", err)
	}
	return s.encode(ctx, "Evaluate", NewEvaluateResponse(entity, ev))
}

// ReactiveFields returns the dependency map of an entity type.
func (s *VisibilityService) ReactiveFields(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EntityRequest
	if err := DecodeStruct(in, &req); err != nil {
		return nil, Status(err)
	}
	entity, err := ParseEntity(req.EntityType)
	if err != nil {
		return nil, Status(err)
	}
	deps, err := s.svc.ReactiveFields(ctx, entity)
	if err != nil {
		return nil, s.fail(ctx, "ReactiveFields", err)
	}
	return s.encode(ctx, "ReactiveFields", NewDependenciesResponse(entity, deps))
}

// VisibleRecordFields returns the visible fields of a persisted record.
func (s *VisibilityService) VisibleRecordFields(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RecordRequest
	if err := DecodeStruct(in, &req); err != nil {
		return nil, Status(err)
	}
	entity, err := ParseEntity(req.EntityType)
	if err != nil {
		return nil, Status(err)
	}
	id, err := types.ParseRecordID(req.RecordID)
	if err != nil {
		return nil, Status(err)
	}
	view, err := s.svc.VisibleRecordFields(ctx, entity, id)
	if err != nil {
		return nil, s.fail(ctx, "VisibleRecordFields", err)
	}
	return s.encode(ctx, "VisibleRecordFields", NewVisibleRecordResponse(entity, view))
}

// SaveRecord stores submitted values, dropping values of hidden fields.
func (s *VisibilityService) SaveRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SaveRecordRequest
	if err := DecodeStruct(in, &req); err != nil {
		return nil, Status(err)
	}
	entity, err := ParseEntity(req.EntityType)
	if err != nil {
		return nil, Status(err)
	}
	id, err := ParseSaveRecordID(req.RecordID)
	if err != nil {
		return nil, Status(err)
	}
	res, err := s.svc.SaveRecord(ctx, entity, id, req.Values)
	if err != nil {
		return nil, s.fail(ctx, "SaveRecord", err)
	}
	return s.encode(ctx, "SaveRecord", NewSaveRecordResponse(entity, res))
}

func (s *VisibilityService) encode(ctx context.Context, method string, v any) (*structpb.Struct, error) {
	out, err := EncodeStruct(v)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return out, nil
}
