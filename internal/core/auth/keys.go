package auth

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/solatis/fieldkeeper/internal/types"
)

// IssuedKey is a newly created API key. Key is shown once; only its HMAC
// is stored.
type IssuedKey struct {
	ID  string
	Key string
}

// IssueKey creates and stores a key signed with the newest configured
// secret (highest secret_id; secret IDs are UUIDv7 so they sort by age).
func (a *Authenticator) IssueKey(ctx context.Context, name string) (*IssuedKey, error) {
	if len(a.secrets) == 0 {
		return nil, fmt.Errorf("no HMAC secrets configured (set FK_HMAC_SECRET)")
	}
	ids := make([]string, 0, len(a.secrets))
	for id := range a.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	secretID := ids[len(ids)-1]

	key, err := GenerateAPIKey(secretID)
	if err != nil {
		return nil, err
	}
	keyID := uuid.Must(uuid.NewV7()).String()
	if _, err := a.queries.Exec(ctx, "insert-api-key", keyID, name, ComputeHMAC(a.secrets[secretID], key), a.now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: insert api key: %w", types.ErrStorage, err)
	}
	return &IssuedKey{ID: keyID, Key: key}, nil
}

// RevokeKey marks a key revoked. Revoking twice returns ErrKeyNotFound.
func (a *Authenticator) RevokeKey(ctx context.Context, keyID string) error {
	res, err := a.queries.Exec(ctx, "revoke-api-key", a.now().UTC(), keyID)
	if err != nil {
		return fmt.Errorf("%w: revoke api key: %w", types.ErrStorage, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrKeyNotFound
	}
	return nil
}
