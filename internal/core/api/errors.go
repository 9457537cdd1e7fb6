package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/fieldkeeper/internal/types"
)

// Error mapping for both transports.
// Auth errors are mapped in the auth package.
// Database errors map to UNAVAILABLE.
// Validation errors map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.

// ErrMalformedRequest indicates a request body of the wrong shape.
var ErrMalformedRequest = errors.New("malformed request")

// Code classifies an error from the service layer into a gRPC code. The
// HTTP transport derives its status from the same code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, types.ErrStorage):
		return codes.Unavailable
	case errors.Is(err, types.ErrFieldNotFound),
		errors.Is(err, types.ErrRecordNotFound):
		return codes.NotFound
	case errors.Is(err, types.ErrTooManyValues),
		errors.Is(err, types.ErrTooManyFields):
		return codes.ResourceExhausted
	case errors.Is(err, types.ErrInvalidEntityType),
		errors.Is(err, types.ErrInvalidFieldCode),
		errors.Is(err, types.ErrInvalidRecordID),
		errors.Is(err, types.ErrDuplicateFieldCode),
		errors.Is(err, types.ErrPathTooDeep),
		errors.Is(err, ErrMalformedRequest):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// Status converts an error into a gRPC status error. Internal errors
// hide their message.
func Status(err error) error {
	if err == nil {
		return nil
	}
	code := Code(err)
	if code == codes.Internal {
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}
