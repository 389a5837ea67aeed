package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-lazymint/core"
)

var (
	_ gocmd.Querier[GetCollectionAddressMessage, core.AccountID]   = (*GetCollectionAddressQuery)(nil)
	_ gocmd.Querier[GetCatalogAddressMessage, core.AccountID]      = (*GetCatalogAddressQuery)(nil)
	_ gocmd.Querier[GetMintReceiptMessage, core.MintReceipt]       = (*GetMintReceiptQuery)(nil)
	_ gocmd.Querier[ListMintReceiptsMessage, []core.MintReceipt] = (*ListMintReceiptsQuery)(nil)
)
