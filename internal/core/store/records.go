package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/solatis/fieldkeeper/internal/core/db"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

// Record is a persisted entity instance with its custom field values.
type Record struct {
	ID         types.RecordID
	EntityType types.EntityType
	Values     visibility.Values
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecordStore reads and writes record values. Values are stored as JSON
// text, one row per (record, field code).
type RecordStore struct {
	q *db.Queries
}

type recordRow struct {
	ID         string    `db:"id"`
	EntityType string    `db:"entity_type"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type valueRow struct {
	FieldCode string `db:"field_code"`
	Value     string `db:"value"`
}

// GetRecord loads a record and all of its values. Returns
// types.ErrRecordNotFound when the record does not exist or belongs to a
// different entity type.
func (s *RecordStore) GetRecord(ctx context.Context, entity types.EntityType, id types.RecordID) (*Record, error) {
	var row recordRow
	err := s.q.Get(ctx, "get-record", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrRecordNotFound
	}
	if err != nil {
		return nil, dbError("get record", err)
	}
	if types.EntityType(row.EntityType) != entity {
		return nil, types.ErrRecordNotFound
	}

	values, err := s.LoadValues(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:         types.RecordID(row.ID),
		EntityType: types.EntityType(row.EntityType),
		Values:     values,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// LoadValues returns the stored values of a record keyed by field code.
// A record without values yields an empty map.
func (s *RecordStore) LoadValues(ctx context.Context, id types.RecordID) (visibility.Values, error) {
	var rows []valueRow
	if err := s.q.Select(ctx, "list-record-values", &rows, string(id)); err != nil {
		return nil, dbError("list record values", err)
	}
	values := make(visibility.Values, len(rows))
	for _, row := range rows {
		var v any
		if err := json.Unmarshal([]byte(row.Value), &v); err != nil {
			return nil, fmt.Errorf("decode value of %s: %w", row.FieldCode, err)
		}
		values[row.FieldCode] = v
	}
	return values, nil
}

// SaveValues writes values for a record in one transaction, creating the
// record row on first save. Codes not present in values are untouched.
// Returns true when the record was created.
func (s *RecordStore) SaveValues(ctx context.Context, entity types.EntityType, id types.RecordID, values map[string]any) (bool, error) {
	encoded := make(map[string]string, len(values))
	codes := make([]string, 0, len(values))
	for code, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return false, fmt.Errorf("encode value of %s: %w", code, err)
		}
		encoded[code] = string(raw)
		codes = append(codes, code)
	}
	sort.Strings(codes)

	created := false
	err := s.q.InTx(ctx, func(tx *db.Tx) error {
		now := time.Now().UTC()

		var row recordRow
		err := tx.Get(ctx, "get-record", &row, string(id))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.Exec(ctx, "insert-record", string(id), string(entity), now, now); err != nil {
				return dbError("insert record", err)
			}
			created = true
		case err != nil:
			return dbError("get record", err)
		case types.EntityType(row.EntityType) != entity:
			return types.ErrRecordNotFound
		default:
			if _, err := tx.Exec(ctx, "touch-record", now, string(id)); err != nil {
				return dbError("touch record", err)
			}
		}

		for _, code := range codes {
			if _, err := tx.Exec(ctx, "upsert-record-value", string(id), code, encoded[code], now); err != nil {
				return dbError("upsert record value", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
