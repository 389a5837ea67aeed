package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-lazymint/core"
)

var (
	_ gocmd.Commander[MintMessage]                 = (*MintCommand)(nil)
	_ gocmd.Commander[SetCollectionAddressMessage] = (*SetCollectionAddressCommand)(nil)
	_ gocmd.Commander[SetCatalogAddressMessage]    = (*SetCatalogAddressCommand)(nil)

	_ MutatingService = (*core.Orchestrator)(nil)
)
