package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-lazymint/core"
)

type GetCollectionAddressQuery struct {
	reader core.AddressReader
}

func NewGetCollectionAddressQuery(reader core.AddressReader) *GetCollectionAddressQuery {
	return &GetCollectionAddressQuery{reader: reader}
}

func (q *GetCollectionAddressQuery) Query(ctx context.Context, _ GetCollectionAddressMessage) (core.AccountID, error) {
	if q == nil || q.reader == nil {
		return core.AccountID{}, queryDependencyError("query: address reader is required")
	}
	return q.reader.CollectionAddress(ctx)
}

type GetCatalogAddressQuery struct {
	reader core.AddressReader
}

func NewGetCatalogAddressQuery(reader core.AddressReader) *GetCatalogAddressQuery {
	return &GetCatalogAddressQuery{reader: reader}
}

func (q *GetCatalogAddressQuery) Query(ctx context.Context, _ GetCatalogAddressMessage) (core.AccountID, error) {
	if q == nil || q.reader == nil {
		return core.AccountID{}, queryDependencyError("query: address reader is required")
	}
	return q.reader.CatalogAddress(ctx)
}

type GetMintReceiptQuery struct {
	reader core.ReceiptReader
}

func NewGetMintReceiptQuery(reader core.ReceiptReader) *GetMintReceiptQuery {
	return &GetMintReceiptQuery{reader: reader}
}

func (q *GetMintReceiptQuery) Query(ctx context.Context, msg GetMintReceiptMessage) (core.MintReceipt, error) {
	if q == nil || q.reader == nil {
		return core.MintReceipt{}, queryDependencyError("query: receipt reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.MintReceipt{}, err
	}
	return q.reader.MintReceipt(ctx, strings.TrimSpace(msg.ReceiptID))
}

type ListMintReceiptsQuery struct {
	reader core.ReceiptReader
}

func NewListMintReceiptsQuery(reader core.ReceiptReader) *ListMintReceiptsQuery {
	return &ListMintReceiptsQuery{reader: reader}
}

func (q *ListMintReceiptsQuery) Query(ctx context.Context, msg ListMintReceiptsMessage) ([]core.MintReceipt, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: receipt reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.MintReceipts(ctx, msg.Caller, msg.Limit)
}
