package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solatis/fieldkeeper/internal/core/db"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

// FieldStore reads and writes field definitions.
type FieldStore struct {
	q         *db.Queries
	engine    *visibility.Engine
	logger    *slog.Logger
	maxFields int
}

type fieldRow struct {
	ID         string `db:"id"`
	EntityType string `db:"entity_type"`
	Code       string `db:"code"`
	Name       string `db:"name"`
	FieldType  string `db:"field_type"`
	Section    string `db:"section"`
	SortOrder  int    `db:"sort_order"`
	Visibility string `db:"visibility"`
}

// bind decodes a row and compiles its visibility config. An undecodable
// config is logged and treated as always visible.
func (s *FieldStore) bind(row fieldRow) visibility.BoundField {
	cfg, err := visibility.ParseConfig([]byte(row.Visibility))
	if err != nil {
		s.logger.Warn("unreadable visibility config, field always visible",
			"entity_type", row.EntityType, "field", row.Code, "error", err)
		cfg = types.VisibilityConfig{}
	}
	return s.engine.Bind(types.Field{
		ID:         types.FieldID(row.ID),
		EntityType: types.EntityType(row.EntityType),
		Code:       row.Code,
		Name:       row.Name,
		Type:       row.FieldType,
		Section:    row.Section,
		SortOrder:  row.SortOrder,
		Visibility: cfg,
	})
}

// ListFields returns the fields of an entity type ordered by sort order,
// then code.
func (s *FieldStore) ListFields(ctx context.Context, entity types.EntityType) ([]visibility.BoundField, error) {
	if !types.ValidCode(string(entity), types.MaxEntityTypeLength) {
		return nil, types.ErrInvalidEntityType
	}
	var rows []fieldRow
	if err := s.q.Select(ctx, "list-fields", &rows, string(entity)); err != nil {
		return nil, dbError("list fields", err)
	}
	out := make([]visibility.BoundField, len(rows))
	for i, row := range rows {
		out[i] = s.bind(row)
	}
	return out, nil
}

// GetField returns one field or types.ErrFieldNotFound.
func (s *FieldStore) GetField(ctx context.Context, entity types.EntityType, code string) (visibility.BoundField, error) {
	var row fieldRow
	err := s.q.Get(ctx, "get-field", &row, string(entity), code)
	if errors.Is(err, sql.ErrNoRows) {
		return visibility.BoundField{}, types.ErrFieldNotFound
	}
	if err != nil {
		return visibility.BoundField{}, dbError("get field", err)
	}
	return s.bind(row), nil
}

// queryRunner is satisfied by *db.Queries and *db.Tx.
type queryRunner interface {
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
	Get(ctx context.Context, name string, dest any, args ...any) error
}

// UpsertField creates or replaces the field identified by (entity type,
// code). The existing ID is kept on update; new fields get a UUIDv7.
func (s *FieldStore) UpsertField(ctx context.Context, f types.Field) (types.Field, error) {
	return s.upsertField(ctx, s.q, f)
}

// UpsertFields saves fields in one transaction. Either every field is
// written or none is.
func (s *FieldStore) UpsertFields(ctx context.Context, fields []types.Field) ([]types.Field, error) {
	saved := make([]types.Field, 0, len(fields))
	err := s.q.InTx(ctx, func(tx *db.Tx) error {
		for _, f := range fields {
			out, err := s.upsertField(ctx, tx, f)
			if err != nil {
				return fmt.Errorf("field %s/%s: %w", f.EntityType, f.Code, err)
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *FieldStore) upsertField(ctx context.Context, r queryRunner, f types.Field) (types.Field, error) {
	if err := f.Validate(); err != nil {
		return types.Field{}, err
	}

	var existing fieldRow
	err := r.Get(ctx, "get-field", &existing, string(f.EntityType), f.Code)
	switch {
	case err == nil:
		f.ID = types.FieldID(existing.ID)
	case errors.Is(err, sql.ErrNoRows):
		if err := s.checkCapacity(ctx, r, f.EntityType); err != nil {
			return types.Field{}, err
		}
		f.ID = types.NewFieldID()
	default:
		return types.Field{}, dbError("get field", err)
	}

	for _, issue := range visibility.Lint(f.Code, f.Visibility) {
		s.logger.Info("saving field with visibility issue", "entity_type", f.EntityType, "field", issue.Field, "issue", issue.Message)
	}

	cfg, err := visibility.MarshalConfig(f.Visibility)
	if err != nil {
		return types.Field{}, fmt.Errorf("encode visibility config: %w", err)
	}
	if f.Type == "" {
		f.Type = "text"
	}

	now := time.Now().UTC()
	_, err = r.Exec(ctx, "upsert-field",
		string(f.ID), string(f.EntityType), f.Code, f.Name, f.Type, f.Section, f.SortOrder, string(cfg), now, now)
	if err != nil {
		return types.Field{}, dbError("upsert field", err)
	}
	return f, nil
}

func (s *FieldStore) checkCapacity(ctx context.Context, r queryRunner, entity types.EntityType) error {
	if s.maxFields <= 0 {
		return nil
	}
	var n int
	if err := r.Get(ctx, "count-fields", &n, string(entity)); err != nil {
		return dbError("count fields", err)
	}
	if n >= s.maxFields {
		return fmt.Errorf("%w: limit is %d", types.ErrTooManyFields, s.maxFields)
	}
	return nil
}

// DeleteField removes a field definition. Stored record values for the
// code are left in place.
func (s *FieldStore) DeleteField(ctx context.Context, entity types.EntityType, code string) error {
	res, err := s.q.Exec(ctx, "delete-field", string(entity), code)
	if err != nil {
		return dbError("delete field", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrFieldNotFound
	}
	return nil
}
