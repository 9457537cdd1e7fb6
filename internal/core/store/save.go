package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

/*
 * Visibility-aware record save.
 *
 * Pipeline:
 *   1. Load the entity's fields and the record's persisted values
 *   2. Snapshot = persisted values overlaid with submitted values, limited
 *      to codes that are fields of the entity
 *   3. Decide every field once against the snapshot
 *   4. Write submitted values of visible fields and of always-save fields;
 *      skip hidden ones (their stored value is left untouched) and codes
 *      that are not fields
 *
 * Hidden values are dropped, not cleared: toggling a controlling field back
 * restores whatever was saved before.
 */

// SaveResult reports what a save wrote and what it skipped.
type SaveResult struct {
	RecordID   types.RecordID
	Created    bool
	Written    []string // codes whose submitted values were stored
	Suppressed []string // hidden fields whose submitted values were dropped
	Unknown    []string // submitted codes that are not fields of the entity
}

// SaveRecord runs the visibility-aware save pipeline for one record.
func (s *Store) SaveRecord(ctx context.Context, entity types.EntityType, id types.RecordID, submitted map[string]any) (*SaveResult, error) {
	if s.limits.MaxBatchSize > 0 && len(submitted) > s.limits.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d values, limit is %d", types.ErrTooManyValues, len(submitted), s.limits.MaxBatchSize)
	}

	fields, err := s.Fields.ListFields(ctx, entity)
	if err != nil {
		return nil, err
	}

	persisted := visibility.Values{}
	rec, err := s.Records.GetRecord(ctx, entity, id)
	switch {
	case err == nil:
		persisted = rec.Values
	case errors.Is(err, types.ErrRecordNotFound):
	default:
		return nil, err
	}

	schema := s.engine.Schema(visibility.AsFields(fields))
	snapshot := make(visibility.Values, len(persisted)+len(submitted))
	for code, v := range persisted {
		snapshot[code] = v
	}
	for code, v := range submitted {
		if _, ok := schema.Field(code); ok {
			snapshot[code] = v
		}
	}

	decisions := make(map[string]visibility.Decision, len(fields))
	for _, d := range schema.Decide(snapshot) {
		decisions[d.Code] = d
	}

	result := &SaveResult{RecordID: id}
	toWrite := make(map[string]any, len(submitted))
	for _, code := range sortedKeys(submitted) {
		d, ok := decisions[code]
		switch {
		case !ok:
			result.Unknown = append(result.Unknown, code)
		case d.Persist:
			toWrite[code] = submitted[code]
			result.Written = append(result.Written, code)
		default:
			result.Suppressed = append(result.Suppressed, code)
		}
	}

	created, err := s.Records.SaveValues(ctx, entity, id, toWrite)
	if err != nil {
		return nil, err
	}
	result.Created = created

	if len(result.Suppressed) > 0 || len(result.Unknown) > 0 {
		s.logger.Debug("record save skipped values",
			"entity_type", entity, "record_id", id,
			"suppressed", result.Suppressed, "unknown", result.Unknown)
	}
	return result, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
