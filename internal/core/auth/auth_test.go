package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/fieldkeeper/internal/types"
)

const testSecretID = "0190f3b1c2d34e5f8a9b0c1d2e3f4a5b"

type keyRow struct {
	id        string
	name      string
	hash      []byte
	lastUsed  sql.NullTime
	revokedAt sql.NullTime
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

// fakeQueries stores api_keys rows in memory and answers the named queries
// the authenticator uses.
type fakeQueries struct {
	rows    []*keyRow
	getErr  error
	touched int
}

func (f *fakeQueries) Get(_ context.Context, name string, dest any, args ...any) error {
	if f.getErr != nil {
		return f.getErr
	}
	if name != "get-api-key-by-hash" {
		return errors.New("unexpected query " + name)
	}
	hash := args[0].([]byte)
	for _, r := range f.rows {
		if VerifyHMAC(r.hash, hash) {
			out := dest.(*struct {
				APIKeyID   string       `db:"api_key_id"`
				Name       string       `db:"name"`
				LastUsedAt sql.NullTime `db:"last_used_at"`
				RevokedAt  sql.NullTime `db:"revoked_at"`
			})
			out.APIKeyID = r.id
			out.Name = r.name
			out.LastUsedAt = r.lastUsed
			out.RevokedAt = r.revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeQueries) Exec(_ context.Context, name string, args ...any) (sql.Result, error) {
	switch name {
	case "update-last-used":
		f.touched++
		for _, r := range f.rows {
			if r.id == args[1].(string) {
				r.lastUsed = sql.NullTime{Time: args[0].(time.Time), Valid: true}
			}
		}
		return fakeResult(1), nil
	case "insert-api-key":
		f.rows = append(f.rows, &keyRow{id: args[0].(string), name: args[1].(string), hash: args[2].([]byte)})
		return fakeResult(1), nil
	case "revoke-api-key":
		for _, r := range f.rows {
			if r.id == args[1].(string) && !r.revokedAt.Valid {
				r.revokedAt = sql.NullTime{Time: args[0].(time.Time), Valid: true}
				return fakeResult(1), nil
			}
		}
		return fakeResult(0), nil
	}
	return nil, errors.New("unexpected query " + name)
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *fakeQueries) {
	t.Helper()
	q := &fakeQueries{}
	a := NewAuthenticator(map[string][]byte{testSecretID: []byte("0123456789abcdef0123456789abcdef")}, q)
	return a, q
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, random), false},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "fk-v2-" + testSecretID + "-" + random, true},
		{"short secret", "fk-v1-abc-" + random, true},
		{"short random", "fk-v1-" + testSecretID + "-abc", true},
		{"uppercase hex", "fk-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"extra part", FormatAPIKey(testSecretID, random) + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyFormat) {
					t.Fatalf("ParseAPIKey(%q) error = %v, want ErrInvalidKeyFormat", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey(%q) unexpected error: %v", tt.key, err)
			}
			if secretID != testSecretID || randomData != random {
				t.Errorf("ParseAPIKey(%q) = (%q, %q)", tt.key, secretID, randomData)
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	b, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if len(a) != 103 {
		t.Errorf("key length = %d, want 103", len(a))
	}
	if a == b {
		t.Error("two generated keys are identical")
	}
	if _, _, err := ParseAPIKey(a); err != nil {
		t.Errorf("generated key does not parse: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	a, q := newTestAuthenticator(t)

	issued, err := a.IssueKey(ctx, "ci")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}

	keyID, err := a.Authenticate(ctx, issued.Key)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if keyID != issued.ID {
		t.Errorf("Authenticate = %q, want %q", keyID, issued.ID)
	}
	if q.touched != 1 {
		t.Errorf("last_used updates = %d, want 1", q.touched)
	}

	// second call inside the throttle window does not write
	if _, err := a.Authenticate(ctx, issued.Key); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if q.touched != 1 {
		t.Errorf("last_used updates = %d, want 1 (throttled)", q.touched)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := a.Authenticate(ctx, issued.Key); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if q.touched != 2 {
		t.Errorf("last_used updates = %d, want 2", q.touched)
	}
}

func TestAuthenticate_Errors(t *testing.T) {
	ctx := context.Background()
	random := strings.Repeat("cd", 32)

	tests := []struct {
		name    string
		key     func(a *Authenticator) string
		getErr  error
		wantErr error
	}{
		{
			name:    "malformed",
			key:     func(*Authenticator) string { return "not-a-key" },
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "unknown secret",
			key:     func(*Authenticator) string { return FormatAPIKey(strings.Repeat("0", 32), random) },
			wantErr: ErrUnknownKey,
		},
		{
			name:    "never issued",
			key:     func(*Authenticator) string { return FormatAPIKey(testSecretID, random) },
			wantErr: ErrInvalidKey,
		},
		{
			name: "revoked",
			key: func(a *Authenticator) string {
				issued, err := a.IssueKey(ctx, "old")
				if err != nil {
					t.Fatalf("IssueKey: %v", err)
				}
				if err := a.RevokeKey(ctx, issued.ID); err != nil {
					t.Fatalf("RevokeKey: %v", err)
				}
				return issued.Key
			},
			wantErr: ErrKeyRevoked,
		},
		{
			name:    "storage failure",
			key:     func(*Authenticator) string { return FormatAPIKey(testSecretID, random) },
			getErr:  errors.New("connection refused"),
			wantErr: types.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, q := newTestAuthenticator(t)
			key := tt.key(a)
			q.getErr = tt.getErr
			_, err := a.Authenticate(ctx, key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRevokeKey_Twice(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator(t)

	issued, err := a.IssueKey(ctx, "temp")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	if err := a.RevokeKey(ctx, issued.ID); err != nil {
		t.Fatalf("RevokeKey: %v", err)
	}
	if err := a.RevokeKey(ctx, issued.ID); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("second RevokeKey error = %v, want ErrKeyNotFound", err)
	}
}

func TestIssueKey_NoSecrets(t *testing.T) {
	a := NewAuthenticator(nil, &fakeQueries{})
	if _, err := a.IssueKey(context.Background(), "x"); err == nil {
		t.Error("IssueKey without secrets should fail")
	}
}

func TestIssueKey_NewestSecret(t *testing.T) {
	older := "0190f3b1000000000000000000000000"
	newer := "0190f3b2000000000000000000000000"
	a := NewAuthenticator(map[string][]byte{
		older: []byte("older-secret-older-secret-older!!"),
		newer: []byte("newer-secret-newer-secret-newer!!"),
	}, &fakeQueries{})

	issued, err := a.IssueKey(context.Background(), "x")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	secretID, _, _ := ParseAPIKey(issued.Key)
	if secretID != newer {
		t.Errorf("key signed with %q, want %q", secretID, newer)
	}
}

func TestGRPCStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{ErrMissingKey, codes.Unauthenticated},
		{ErrInvalidKey, codes.Unauthenticated},
		{ErrUnknownKey, codes.Unauthenticated},
		{ErrKeyRevoked, codes.PermissionDenied},
		{types.ErrStorage, codes.Unavailable},
	}
	for _, tt := range tests {
		if got := status.Code(GRPCStatus(tt.err)); got != tt.want {
			t.Errorf("GRPCStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestUnaryInterceptor(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthenticator(t)
	issued, err := a.IssueKey(ctx, "svc")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = APIKeyIDFromContext(ctx)
		return "ok", nil
	}
	intercept := a.UnaryInterceptor()
	evaluate := &grpc.UnaryServerInfo{FullMethod: "/fieldkeeper.visibility.v1.VisibilityService/Evaluate"}

	tests := []struct {
		name     string
		ctx      context.Context
		info     *grpc.UnaryServerInfo
		wantCode codes.Code
		wantID   string
	}{
		{"no metadata", ctx, evaluate, codes.Unauthenticated, ""},
		{"no key", metadata.NewIncomingContext(ctx, metadata.Pairs("other", "x")), evaluate, codes.Unauthenticated, ""},
		{"bad key", metadata.NewIncomingContext(ctx, metadata.Pairs(HeaderName, "junk")), evaluate, codes.Unauthenticated, ""},
		{"valid key", metadata.NewIncomingContext(ctx, metadata.Pairs(HeaderName, issued.Key)), evaluate, codes.OK, issued.ID},
		{"health exempt", ctx, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, codes.OK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			_, err := intercept(tt.ctx, nil, tt.info, handler)
			if got := status.Code(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.wantCode, err)
			}
			if seen != tt.wantID {
				t.Errorf("APIKeyIDFromContext = %q, want %q", seen, tt.wantID)
			}
		})
	}
}
