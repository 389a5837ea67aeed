package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type orchestratorRecord struct {
	bun.BaseModel `bun:"table:lazymint_orchestrators,alias:lo"`

	ID                string    `bun:"id,pk"`
	CollectionAddress string    `bun:"collection_address,notnull"`
	CatalogAddress    string    `bun:"catalog_address,notnull"`
	SequenceCounter   int64     `bun:"sequence_counter,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type mintReceiptRecord struct {
	bun.BaseModel `bun:"table:lazymint_mint_receipts,alias:lmr"`

	ID                string         `bun:"id,pk"`
	OrchestratorID    string         `bun:"orchestrator_id,notnull"`
	Caller            string         `bun:"caller,notnull"`
	CollectionAddress string         `bun:"collection_address,notnull"`
	Payment           string         `bun:"payment,notnull"`
	Status            string         `bun:"status,notnull"`
	State             string         `bun:"state,notnull"`
	ErrorCode         string         `bun:"error_code,notnull"`
	TokenID           *int64         `bun:"token_id"`
	AssetIndex        *int64         `bun:"asset_index"`
	TotalAssets       int64          `bun:"total_assets,notnull"`
	Sequence          *int64         `bun:"sequence"`
	AttachSkipped     bool           `bun:"attach_skipped,notnull"`
	Metadata          map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt         time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
