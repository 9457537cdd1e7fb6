// Package auth provides HMAC-based API key authentication for the gRPC and
// HTTP visibility APIs.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/fieldkeeper/internal/types"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// apiKeyIDKey is the context key for the authenticated API key ID.
const apiKeyIDKey = contextKey("api_key_id")

// HeaderName carries the API key in gRPC metadata and HTTP headers.
const HeaderName = "x-api-key"

// Queries defines the database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		now:     time.Now,
	}
}

// Authenticate validates an API key and returns its api_key_id.
// Storage failures wrap types.ErrStorage; everything else is one of the
// sentinel errors in errors.go.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		Name       string       `db:"name"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
	}

	// key_hash is unique, so at most one row matches
	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrStorage, err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// 1-minute throttle keeps active clients from writing on every request
	if a.shouldUpdateLastUsed(result.LastUsedAt) {
		_, _ = a.queries.Exec(ctx, "update-last-used", a.now().UTC(), result.APIKeyID)
	}

	return result.APIKeyID, nil
}

// shouldUpdateLastUsed implements 1-minute throttle to reduce write amplification.
func (a *Authenticator) shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return a.now().Sub(lastUsed.Time) > time.Minute
}

// GRPCStatus maps an authentication error to a gRPC status.
// Revoked keys are PERMISSION_DENIED (the key exists but is blocked),
// storage failures UNAVAILABLE, everything else UNAUTHENTICATED.
func GRPCStatus(err error) error {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, types.ErrStorage):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Health checks are exempt so load balancers need no key.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get(HeaderName)
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		keyID, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			return nil, GRPCStatus(err)
		}

		return handler(WithAPIKeyID(ctx, keyID), req)
	}
}

// WithAPIKeyID stores the authenticated key ID in ctx.
func WithAPIKeyID(ctx context.Context, keyID string) context.Context {
	return context.WithValue(ctx, apiKeyIDKey, keyID)
}

// APIKeyIDFromContext extracts the authenticated key ID from context.
// Returns empty string if not found.
func APIKeyIDFromContext(ctx context.Context) string {
	if keyID, ok := ctx.Value(apiKeyIDKey).(string); ok {
		return keyID
	}
	return ""
}
