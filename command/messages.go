package command

import (
	"math/big"

	"github.com/goliatone/go-lazymint/core"
)

const (
	TypeMint                 = "lazymint.command.mint"
	TypeSetCollectionAddress = "lazymint.command.collection_address.set"
	TypeSetCatalogAddress    = "lazymint.command.catalog_address.set"
)

type MintMessage struct {
	Caller   core.AccountID
	Payment  *big.Int
	Metadata map[string]any
}

func (MintMessage) Type() string { return TypeMint }

func (m MintMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller is required")
	}
	if m.Payment != nil && m.Payment.Sign() < 0 {
		return commandValidationError("payment", "payment must not be negative")
	}
	return nil
}

func (m MintMessage) request() core.MintRequest {
	return core.MintRequest{
		Caller:   m.Caller,
		Payment:  m.Payment,
		Metadata: m.Metadata,
	}
}

type SetCollectionAddressMessage struct {
	Caller  core.AccountID
	Address core.AccountID
}

func (SetCollectionAddressMessage) Type() string { return TypeSetCollectionAddress }

func (m SetCollectionAddressMessage) Validate() error {
	return validateAddressChange(m.Caller, m.Address)
}

type SetCatalogAddressMessage struct {
	Caller  core.AccountID
	Address core.AccountID
}

func (SetCatalogAddressMessage) Type() string { return TypeSetCatalogAddress }

func (m SetCatalogAddressMessage) Validate() error {
	return validateAddressChange(m.Caller, m.Address)
}

func validateAddressChange(caller core.AccountID, address core.AccountID) error {
	if caller.IsZero() {
		return commandValidationError("caller", "caller is required")
	}
	if address.IsZero() {
		return commandValidationError("address", "address must not be zero")
	}
	return nil
}
