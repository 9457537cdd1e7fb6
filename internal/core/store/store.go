// Package store persists field definitions and record values and runs the
// visibility-aware save pipeline on top of them.
//
// All SQL lives in internal/core/db/queries as named statements; this
// package only binds arguments and maps rows. Field visibility configs are
// stored as JSON text and compiled through the visibility engine on read,
// so a corrupt config degrades to an always-visible field instead of
// failing the whole entity.
package store

import (
	"fmt"
	"log/slog"

	"github.com/solatis/fieldkeeper/internal/core/db"
	"github.com/solatis/fieldkeeper/internal/core/logging"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

// Limits bounds what a single entity type or request may contain.
type Limits struct {
	MaxFieldsPerEntity int
	MaxBatchSize       int
}

// Store groups the repositories and the save pipeline.
type Store struct {
	Fields  *FieldStore
	Records *RecordStore

	engine *visibility.Engine
	limits Limits
	logger *slog.Logger
}

// New wires repositories over loaded queries.
func New(q *db.Queries, engine *visibility.Engine, logger *slog.Logger, limits Limits) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "store")
	return &Store{
		Fields:  &FieldStore{q: q, engine: engine, logger: logger, maxFields: limits.MaxFieldsPerEntity},
		Records: &RecordStore{q: q},
		engine:  engine,
		limits:  limits,
		logger:  logger,
	}
}

// dbError marks err as a storage failure while keeping it inspectable.
func dbError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrStorage, op, err)
}
