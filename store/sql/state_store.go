package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-lazymint/core"
	"github.com/uptrace/bun"
)

type StateStore struct {
	db    *bun.DB
	nowFn func() time.Time
}

func NewStateStore(db *bun.DB) (*StateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &StateStore{
		db:    db,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ensure inserts initial when no row exists for its id and returns the
// stored row either way.
func (s *StateStore) Ensure(ctx context.Context, initial core.OrchestratorState) (core.OrchestratorState, error) {
	if s == nil || s.db == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: state store is not configured")
	}
	id := strings.TrimSpace(initial.ID)
	if id == "" {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: orchestrator id is required")
	}
	now := s.nowFn()
	record := &orchestratorRecord{
		ID:                id,
		CollectionAddress: initial.CollectionAddress.String(),
		CatalogAddress:    initial.CatalogAddress.String(),
		SequenceCounter:   int64(initial.SequenceCounter),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var stored *orchestratorRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, insertErr := tx.NewInsert().
			Model(record).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); insertErr != nil {
			return insertErr
		}
		found, findErr := findOrchestratorTx(ctx, tx, id)
		if findErr != nil {
			return findErr
		}
		stored = found
		return nil
	})
	if err != nil {
		return core.OrchestratorState{}, err
	}
	return stored.toDomain()
}

func (s *StateStore) Load(ctx context.Context, id string) (core.OrchestratorState, error) {
	if s == nil || s.db == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: state store is not configured")
	}
	record := &orchestratorRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.OrchestratorState{}, core.ErrStateNotFound
		}
		return core.OrchestratorState{}, err
	}
	return record.toDomain()
}

func (s *StateStore) SaveAddresses(
	ctx context.Context,
	id string,
	collection core.AccountID,
	catalog core.AccountID,
) (core.OrchestratorState, error) {
	if s == nil || s.db == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: state store is not configured")
	}
	id = strings.TrimSpace(id)
	var stored *orchestratorRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, updateErr := tx.NewUpdate().
			Model((*orchestratorRecord)(nil)).
			Set("collection_address = ?", collection.String()).
			Set("catalog_address = ?", catalog.String()).
			Set("updated_at = ?", s.nowFn()).
			Where("id = ?", id).
			Exec(ctx)
		if updateErr != nil {
			return updateErr
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return core.ErrStateNotFound
		}
		found, findErr := findOrchestratorTx(ctx, tx, id)
		if findErr != nil {
			return findErr
		}
		stored = found
		return nil
	})
	if err != nil {
		return core.OrchestratorState{}, err
	}
	return stored.toDomain()
}

// NextSequence increments the stored counter first so the row is write
// locked for the rest of the transaction, then returns the pre-increment
// value. The column holds the uint64 counter as its two's complement int64,
// so the increment wraps at MaxInt64 instead of overflowing the column.
func (s *StateStore) NextSequence(ctx context.Context, id string) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: state store is not configured")
	}
	id = strings.TrimSpace(id)
	var current uint64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, updateErr := tx.NewUpdate().
			Model((*orchestratorRecord)(nil)).
			Set("sequence_counter = ?", sequenceIncrement).
			Set("updated_at = ?", s.nowFn()).
			Where("id = ?", id).
			Exec(ctx)
		if updateErr != nil {
			return updateErr
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return core.ErrStateNotFound
		}
		found, findErr := findOrchestratorTx(ctx, tx, id)
		if findErr != nil {
			return findErr
		}
		current = uint64(found.SequenceCounter) - 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return current, nil
}

var sequenceIncrement = bun.Safe(fmt.Sprintf(
	"CASE WHEN sequence_counter = %d THEN %d ELSE sequence_counter + 1 END",
	int64(math.MaxInt64), int64(math.MinInt64),
))

func findOrchestratorTx(ctx context.Context, tx bun.Tx, id string) (*orchestratorRecord, error) {
	record := &orchestratorRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrStateNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *orchestratorRecord) toDomain() (core.OrchestratorState, error) {
	if r == nil {
		return core.OrchestratorState{}, core.ErrStateNotFound
	}
	collection, err := parseStoredAddress(r.CollectionAddress)
	if err != nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: orchestrator %s collection address: %w", r.ID, err)
	}
	catalog, err := parseStoredAddress(r.CatalogAddress)
	if err != nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: orchestrator %s catalog address: %w", r.ID, err)
	}
	return core.OrchestratorState{
		ID:                r.ID,
		CollectionAddress: collection,
		CatalogAddress:    catalog,
		SequenceCounter:   uint64(r.SequenceCounter),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}, nil
}

func parseStoredAddress(raw string) (core.AccountID, error) {
	if strings.TrimSpace(raw) == "" {
		return core.ZeroAccountID, nil
	}
	return core.ParseAccountID(raw)
}
