package lazymint

import (
	"fmt"

	lazymintcommand "github.com/goliatone/go-lazymint/command"
	"github.com/goliatone/go-lazymint/core"
	lazymintquery "github.com/goliatone/go-lazymint/query"
)

type CommandQueryService interface {
	lazymintcommand.MutatingService
	core.AddressReader
}

type Commands struct {
	Mint                 *lazymintcommand.MintCommand
	SetCollectionAddress *lazymintcommand.SetCollectionAddressCommand
	SetCatalogAddress    *lazymintcommand.SetCatalogAddressCommand
}

type Queries struct {
	GetCollectionAddress *lazymintquery.GetCollectionAddressQuery
	GetCatalogAddress    *lazymintquery.GetCatalogAddressQuery
	GetMintReceipt       *lazymintquery.GetMintReceiptQuery
	ListMintReceipts     *lazymintquery.ListMintReceiptsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	receiptReader core.ReceiptReader
}

// WithReceiptReader serves the receipt queries from reader instead of the
// service, e.g. a read replica.
func WithReceiptReader(reader core.ReceiptReader) FacadeOption {
	return func(options *facadeOptions) {
		options.receiptReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("lazymint: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.receiptReader
	if reader == nil {
		reader, _ = service.(core.ReceiptReader)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Mint:                 lazymintcommand.NewMintCommand(service),
		SetCollectionAddress: lazymintcommand.NewSetCollectionAddressCommand(service),
		SetCatalogAddress:    lazymintcommand.NewSetCatalogAddressCommand(service),
	}
	facade.queries = Queries{
		GetCollectionAddress: lazymintquery.NewGetCollectionAddressQuery(service),
		GetCatalogAddress:    lazymintquery.NewGetCatalogAddressQuery(service),
		GetMintReceipt:       lazymintquery.NewGetMintReceiptQuery(reader),
		ListMintReceipts:     lazymintquery.NewListMintReceiptsQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
