package query

import (
	"strings"

	"github.com/goliatone/go-lazymint/core"
)

const (
	TypeGetCollectionAddress = "lazymint.query.collection_address.get"
	TypeGetCatalogAddress    = "lazymint.query.catalog_address.get"
	TypeGetMintReceipt       = "lazymint.query.mint_receipt.get"
	TypeListMintReceipts     = "lazymint.query.mint_receipt.list"

	maxReceiptListLimit = 200
)

type GetCollectionAddressMessage struct{}

func (GetCollectionAddressMessage) Type() string { return TypeGetCollectionAddress }

func (GetCollectionAddressMessage) Validate() error { return nil }

type GetCatalogAddressMessage struct{}

func (GetCatalogAddressMessage) Type() string { return TypeGetCatalogAddress }

func (GetCatalogAddressMessage) Validate() error { return nil }

type GetMintReceiptMessage struct {
	ReceiptID string
}

func (GetMintReceiptMessage) Type() string { return TypeGetMintReceipt }

func (m GetMintReceiptMessage) Validate() error {
	if strings.TrimSpace(m.ReceiptID) == "" {
		return queryValidationError("receipt_id", "receipt id is required")
	}
	return nil
}

type ListMintReceiptsMessage struct {
	Caller core.AccountID
	Limit  int
}

func (ListMintReceiptsMessage) Type() string { return TypeListMintReceipts }

func (m ListMintReceiptsMessage) Validate() error {
	if m.Caller.IsZero() {
		return queryValidationError("caller", "caller is required")
	}
	if m.Limit < 0 || m.Limit > maxReceiptListLimit {
		return queryValidationError("limit", "limit must be between 0 and 200")
	}
	return nil
}
