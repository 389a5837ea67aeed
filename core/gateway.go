package core

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	SelectorTotalAssets     = "MultiAsset::total_assets"
	SelectorMint            = "MintingLazy::mint"
	SelectorAddAssetToToken = "MultiAsset::add_asset_to_token"
	SelectorTransfer        = "PSP34::transfer"
	SelectorPartsCount      = "Catalog::get_parts_count"
)

type CallOptions struct {
	Selector string
	GasLimit uint64
	Value    *big.Int
	Timeout  time.Duration
}

// CollectionRegistry is the remote collection contract: exactly the four
// operations the mint sequence needs.
type CollectionRegistry interface {
	TotalAssets(ctx context.Context, opts CallOptions) (uint32, error)
	Mint(ctx context.Context, opts CallOptions) (TokenID, error)
	AddAssetToToken(ctx context.Context, opts CallOptions, tokenID TokenID, assetID uint32) error
	Transfer(ctx context.Context, opts CallOptions, to AccountID, tokenID TokenID) error
}

// CatalogRegistry is read only and never touched by the mint sequence.
type CatalogRegistry interface {
	PartsCount(ctx context.Context, opts CallOptions) (uint32, error)
}

// RegistryDialer resolves the remote behind an address.
type RegistryDialer interface {
	Collection(address AccountID) (CollectionRegistry, error)
	Catalog(address AccountID) (CatalogRegistry, error)
}

type Gateway struct {
	dialer   RegistryDialer
	gasLimit uint64
	timeout  time.Duration
}

func NewGateway(dialer RegistryDialer, gasLimit uint64, timeout time.Duration) *Gateway {
	if gasLimit == 0 {
		gasLimit = DefaultCallGasLimit
	}
	return &Gateway{dialer: dialer, gasLimit: gasLimit, timeout: timeout}
}

func (g *Gateway) callOptions(selector string, value *big.Int) CallOptions {
	opts := CallOptions{
		Selector: selector,
		GasLimit: g.gasLimit,
		Timeout:  g.timeout,
	}
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}
	return opts
}

func (g *Gateway) collection(address AccountID) (CollectionRegistry, error) {
	if g == nil || g.dialer == nil {
		return nil, fmt.Errorf("core: registry dialer is not configured: %w", ErrRegistryUnreachable)
	}
	if address.IsZero() {
		return nil, fmt.Errorf("core: collection address is not configured: %w", ErrRegistryUnreachable)
	}
	registry, err := g.dialer.Collection(address)
	if err != nil {
		return nil, fmt.Errorf("core: dial collection %s: %w", address, errors.Join(err, ErrRegistryUnreachable))
	}
	if registry == nil {
		return nil, fmt.Errorf("core: dialer returned nil collection for %s: %w", address, ErrRegistryUnreachable)
	}
	return registry, nil
}

func (g *Gateway) ReadTotalAssets(ctx context.Context, address AccountID) (uint32, CallOutcome) {
	registry, err := g.collection(address)
	if err != nil {
		return 0, classifyCall(err)
	}
	count, err := registry.TotalAssets(ctx, g.callOptions(SelectorTotalAssets, nil))
	if err != nil {
		return 0, classifyCall(err)
	}
	return count, CallOutcome{Status: CallStatusSuccess}
}

func (g *Gateway) MintToken(ctx context.Context, address AccountID, payment *big.Int) (TokenID, CallOutcome) {
	registry, err := g.collection(address)
	if err != nil {
		return 0, classifyCall(err)
	}
	tokenID, err := registry.Mint(ctx, g.callOptions(SelectorMint, payment))
	if err != nil {
		return 0, classifyCall(err)
	}
	return tokenID, CallOutcome{Status: CallStatusSuccess}
}

func (g *Gateway) AddAssetToToken(ctx context.Context, address AccountID, tokenID TokenID, assetID uint32) CallOutcome {
	registry, err := g.collection(address)
	if err != nil {
		return classifyCall(err)
	}
	return classifyCall(registry.AddAssetToToken(ctx, g.callOptions(SelectorAddAssetToToken, nil), tokenID, assetID))
}

func (g *Gateway) TransferToken(ctx context.Context, address AccountID, tokenID TokenID, to AccountID) CallOutcome {
	registry, err := g.collection(address)
	if err != nil {
		return classifyCall(err)
	}
	return classifyCall(registry.Transfer(ctx, g.callOptions(SelectorTransfer, nil), to, tokenID))
}

func (g *Gateway) CatalogPartsCount(ctx context.Context, address AccountID) (uint32, CallOutcome) {
	if g == nil || g.dialer == nil {
		return 0, classifyCall(fmt.Errorf("core: registry dialer is not configured: %w", ErrRegistryUnreachable))
	}
	if address.IsZero() {
		return 0, classifyCall(fmt.Errorf("core: catalog address is not configured: %w", ErrRegistryUnreachable))
	}
	catalog, err := g.dialer.Catalog(address)
	if err != nil {
		return 0, classifyCall(errors.Join(err, ErrRegistryUnreachable))
	}
	if catalog == nil {
		return 0, classifyCall(fmt.Errorf("core: dialer returned nil catalog for %s: %w", address, ErrRegistryUnreachable))
	}
	count, err := catalog.PartsCount(ctx, g.callOptions(SelectorPartsCount, nil))
	if err != nil {
		return 0, classifyCall(err)
	}
	return count, CallOutcome{Status: CallStatusSuccess}
}

func classifyCall(err error) CallOutcome {
	if err == nil {
		return CallOutcome{Status: CallStatusSuccess}
	}
	reason := strings.TrimSpace(err.Error())
	if errors.Is(err, ErrRegistryUnreachable) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CallOutcome{Status: CallStatusUnreachable, Reason: reason, Err: err}
	}
	return CallOutcome{Status: CallStatusFailure, Reason: reason, Err: err}
}
