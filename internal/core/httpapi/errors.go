package httpapi

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/fieldkeeper/internal/core/api"
	"github.com/solatis/fieldkeeper/internal/core/auth"
)

// AppError is the JSON error body of every failed request.
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ErrorResponse wraps AppError as {"error": {...}}.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return NewAppError("UNAUTHORIZED", fiber.StatusUnauthorized, msg)
}

func BadRequestError(msg string) *AppError {
	return NewAppError("BAD_REQUEST", fiber.StatusBadRequest, msg)
}

// FromError maps a service error onto an AppError using the same
// classification as the gRPC transport.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, api.ErrMalformedRequest) {
		return BadRequestError(err.Error())
	}
	switch api.Code(err) {
	case codes.NotFound:
		return NewAppError("NOT_FOUND", fiber.StatusNotFound, err.Error())
	case codes.InvalidArgument:
		return NewAppError("VALIDATION_FAILED", fiber.StatusUnprocessableEntity, err.Error())
	case codes.ResourceExhausted:
		return NewAppError("LIMIT_EXCEEDED", fiber.StatusUnprocessableEntity, err.Error())
	case codes.Unavailable:
		return NewAppError("UNAVAILABLE", fiber.StatusServiceUnavailable, "storage unavailable")
	case codes.DeadlineExceeded:
		return NewAppError("TIMEOUT", fiber.StatusGatewayTimeout, "request timed out")
	case codes.Canceled:
		return NewAppError("CANCELED", fiber.StatusRequestTimeout, "request canceled")
	default:
		return NewAppError("INTERNAL_ERROR", fiber.StatusInternalServerError, "Internal server error")
	}
}

// authError maps an authentication failure the way the gRPC interceptor does.
func authError(err error) *AppError {
	switch status.Code(auth.GRPCStatus(err)) {
	case codes.PermissionDenied:
		return NewAppError("FORBIDDEN", fiber.StatusForbidden, err.Error())
	case codes.Unavailable:
		return NewAppError("UNAVAILABLE", fiber.StatusServiceUnavailable, "storage unavailable")
	default:
		return UnauthorizedError(err.Error())
	}
}

// errorHandler is the fiber ErrorHandler. Anything not already an AppError
// or fiber.Error goes through FromError.
func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error: NewAppError(fmt.Sprintf("HTTP_%d", fiberErr.Code), fiberErr.Code, fiberErr.Message),
		})
	}

	appErr := FromError(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		h.logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}
