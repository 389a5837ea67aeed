package main

import (
	"strconv"
	"time"

	"github.com/goliatone/go-lazymint/core"
)

type mintView struct {
	TokenID       uint64 `json:"token_id"`
	AssetIndex    uint32 `json:"asset_index"`
	TotalAssets   uint32 `json:"total_assets"`
	Sequence      uint64 `json:"sequence"`
	Timestamp     uint64 `json:"timestamp"`
	State         string `json:"state"`
	AttachSkipped bool   `json:"attach_skipped"`
}

func newMintView(result core.MintResult) mintView {
	return mintView{
		TokenID:       uint64(result.TokenID),
		AssetIndex:    result.AssetIndex,
		TotalAssets:   result.TotalAssets,
		Sequence:      result.Sequence,
		Timestamp:     result.Timestamp,
		State:         string(result.State),
		AttachSkipped: result.AttachSkipped,
	}
}

func (v mintView) fields() [][2]string {
	return [][2]string{
		{"Token", strconv.FormatUint(v.TokenID, 10)},
		{"Asset", strconv.FormatUint(uint64(v.AssetIndex), 10) + " of " + strconv.FormatUint(uint64(v.TotalAssets), 10)},
		{"Sequence", strconv.FormatUint(v.Sequence, 10)},
		{"State", v.State},
		{"Attach skipped", yesNo(v.AttachSkipped)},
	}
}

type receiptView struct {
	ID                string         `json:"id"`
	OrchestratorID    string         `json:"orchestrator_id"`
	Caller            string         `json:"caller"`
	CollectionAddress string         `json:"collection_address"`
	Payment           string         `json:"payment"`
	Status            string         `json:"status"`
	State             string         `json:"state"`
	ErrorCode         string         `json:"error_code,omitempty"`
	TokenID           *uint64        `json:"token_id,omitempty"`
	AssetIndex        *uint32        `json:"asset_index,omitempty"`
	TotalAssets       uint32         `json:"total_assets"`
	Sequence          *uint64        `json:"sequence,omitempty"`
	AttachSkipped     bool           `json:"attach_skipped"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func newReceiptView(receipt core.MintReceipt) receiptView {
	view := receiptView{
		ID:                receipt.ID,
		OrchestratorID:    receipt.OrchestratorID,
		Caller:            receipt.Caller.String(),
		CollectionAddress: receipt.CollectionAddress.String(),
		Payment:           receipt.Payment,
		Status:            string(receipt.Status),
		State:             string(receipt.State),
		ErrorCode:         receipt.ErrorCode,
		AssetIndex:        receipt.AssetIndex,
		TotalAssets:       receipt.TotalAssets,
		Sequence:          receipt.Sequence,
		AttachSkipped:     receipt.AttachSkipped,
		Metadata:          receipt.Metadata,
		CreatedAt:         receipt.CreatedAt,
	}
	if receipt.TokenID != nil {
		tokenID := uint64(*receipt.TokenID)
		view.TokenID = &tokenID
	}
	return view
}

func (v receiptView) row() []string {
	return []string{
		v.ID,
		v.Status,
		v.State,
		optionalUint(v.TokenID),
		optionalUint32(v.AssetIndex),
		optionalUint(v.Sequence),
		v.Payment,
		v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (v receiptView) fields() [][2]string {
	fields := [][2]string{
		{"ID", v.ID},
		{"Orchestrator", v.OrchestratorID},
		{"Caller", v.Caller},
		{"Collection", v.CollectionAddress},
		{"Payment", v.Payment},
		{"Status", v.Status},
		{"State", v.State},
		{"Token", optionalUint(v.TokenID)},
		{"Asset", optionalUint32(v.AssetIndex)},
		{"Sequence", optionalUint(v.Sequence)},
		{"Attach skipped", yesNo(v.AttachSkipped)},
		{"Created", v.CreatedAt.UTC().Format(time.RFC3339)},
	}
	if v.ErrorCode != "" {
		fields = append(fields, [2]string{"Error", v.ErrorCode})
	}
	return fields
}

func optionalUint(value *uint64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatUint(*value, 10)
}

func optionalUint32(value *uint32) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*value), 10)
}
