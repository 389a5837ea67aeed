package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-lazymint/core"
)

type MutatingService interface {
	core.Minter
	core.AddressManager
}

type MintCommand struct {
	service core.Minter
}

func NewMintCommand(service core.Minter) *MintCommand {
	return &MintCommand{service: service}
}

func (c *MintCommand) Execute(ctx context.Context, msg MintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: mint service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Mint(ctx, msg.request())
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetCollectionAddressCommand struct {
	service core.AddressManager
}

func NewSetCollectionAddressCommand(service core.AddressManager) *SetCollectionAddressCommand {
	return &SetCollectionAddressCommand{service: service}
}

func (c *SetCollectionAddressCommand) Execute(ctx context.Context, msg SetCollectionAddressMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: collection address service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.SetCollectionAddress(ctx, msg.Caller, msg.Address)
}

type SetCatalogAddressCommand struct {
	service core.AddressManager
}

func NewSetCatalogAddressCommand(service core.AddressManager) *SetCatalogAddressCommand {
	return &SetCatalogAddressCommand{service: service}
}

func (c *SetCatalogAddressCommand) Execute(ctx context.Context, msg SetCatalogAddressMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: catalog address service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.SetCatalogAddress(ctx, msg.Caller, msg.Address)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
