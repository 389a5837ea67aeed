package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-lazymint/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultReceiptListLimit = 50

type ReceiptStore struct {
	db   *bun.DB
	repo repository.Repository[*mintReceiptRecord]
}

func NewReceiptStore(db *bun.DB) (*ReceiptStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*mintReceiptRecord](db, mintReceiptHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid mint receipt repository wiring: %w", err)
		}
	}
	return &ReceiptStore{db: db, repo: repo}, nil
}

func (s *ReceiptStore) Append(ctx context.Context, receipt core.MintReceipt) (core.MintReceipt, error) {
	if s == nil || s.repo == nil {
		return core.MintReceipt{}, fmt.Errorf("sqlstore: receipt store is not configured")
	}
	if strings.TrimSpace(receipt.OrchestratorID) == "" {
		return core.MintReceipt{}, fmt.Errorf("sqlstore: receipt orchestrator id is required")
	}
	if strings.TrimSpace(receipt.ID) == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	record := mintReceiptRecordFromDomain(receipt)
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.MintReceipt{}, err
	}
	return created.toDomain()
}

func (s *ReceiptStore) Get(ctx context.Context, id string) (core.MintReceipt, error) {
	if s == nil || s.db == nil {
		return core.MintReceipt{}, fmt.Errorf("sqlstore: receipt store is not configured")
	}
	record := &mintReceiptRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.MintReceipt{}, core.ErrReceiptNotFound
		}
		return core.MintReceipt{}, err
	}
	return record.toDomain()
}

// ListByCaller returns the newest receipts for caller first.
func (s *ReceiptStore) ListByCaller(ctx context.Context, caller core.AccountID, limit int) ([]core.MintReceipt, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: receipt store is not configured")
	}
	if limit <= 0 {
		limit = defaultReceiptListLimit
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("caller", "=", caller.String()),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.MintReceipt, 0, len(records))
	for _, record := range records {
		receipt, convErr := record.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, receipt)
	}
	return out, nil
}

func mintReceiptRecordFromDomain(receipt core.MintReceipt) *mintReceiptRecord {
	record := &mintReceiptRecord{
		ID:                strings.TrimSpace(receipt.ID),
		OrchestratorID:    strings.TrimSpace(receipt.OrchestratorID),
		Caller:            receipt.Caller.String(),
		CollectionAddress: receipt.CollectionAddress.String(),
		Payment:           strings.TrimSpace(receipt.Payment),
		Status:            string(receipt.Status),
		State:             string(receipt.State),
		ErrorCode:         strings.TrimSpace(receipt.ErrorCode),
		TotalAssets:       int64(receipt.TotalAssets),
		AttachSkipped:     receipt.AttachSkipped,
		Metadata:          copyAnyMap(receipt.Metadata),
		CreatedAt:         receipt.CreatedAt.UTC(),
	}
	if record.Payment == "" {
		record.Payment = "0"
	}
	if receipt.TokenID != nil {
		value := int64(*receipt.TokenID)
		record.TokenID = &value
	}
	if receipt.AssetIndex != nil {
		value := int64(*receipt.AssetIndex)
		record.AssetIndex = &value
	}
	if receipt.Sequence != nil {
		value := int64(*receipt.Sequence)
		record.Sequence = &value
	}
	return record
}

func (r *mintReceiptRecord) toDomain() (core.MintReceipt, error) {
	if r == nil {
		return core.MintReceipt{}, core.ErrReceiptNotFound
	}
	caller, err := parseStoredAddress(r.Caller)
	if err != nil {
		return core.MintReceipt{}, fmt.Errorf("sqlstore: receipt %s caller: %w", r.ID, err)
	}
	collection, err := parseStoredAddress(r.CollectionAddress)
	if err != nil {
		return core.MintReceipt{}, fmt.Errorf("sqlstore: receipt %s collection address: %w", r.ID, err)
	}
	receipt := core.MintReceipt{
		ID:                r.ID,
		OrchestratorID:    r.OrchestratorID,
		Caller:            caller,
		CollectionAddress: collection,
		Payment:           r.Payment,
		Status:            core.MintReceiptStatus(r.Status),
		State:             core.SequenceState(r.State),
		ErrorCode:         r.ErrorCode,
		TotalAssets:       uint32(r.TotalAssets),
		AttachSkipped:     r.AttachSkipped,
		Metadata:          copyAnyMap(r.Metadata),
		CreatedAt:         r.CreatedAt.UTC(),
	}
	if r.TokenID != nil {
		value := core.TokenID(uint64(*r.TokenID))
		receipt.TokenID = &value
	}
	if r.AssetIndex != nil {
		value := uint32(*r.AssetIndex)
		receipt.AssetIndex = &value
	}
	if r.Sequence != nil {
		value := uint64(*r.Sequence)
		receipt.Sequence = &value
	}
	return receipt, nil
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
