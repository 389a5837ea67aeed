package sqlstore

import "github.com/goliatone/go-lazymint/core"

var (
	_ core.StateStore   = (*StateStore)(nil)
	_ core.StateStore   = (*CachedStateStore)(nil)
	_ core.ReceiptStore = (*ReceiptStore)(nil)
)
