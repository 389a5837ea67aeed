package core

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// RegistryCall records one call received by a memory registry.
type RegistryCall struct {
	Selector string
	GasLimit uint64
	Value    *big.Int
	TokenID  TokenID
	AssetID  uint32
	To       AccountID
}

// MemoryCollectionRegistry is an in-process collection used by tests and
// local wiring. Token ids start at 1.
type MemoryCollectionRegistry struct {
	mu          sync.Mutex
	totalAssets uint32
	nextToken   TokenID
	owners      map[TokenID]AccountID
	tokenAssets map[TokenID][]uint32
	failures    map[string]error
	calls       []RegistryCall
	self        AccountID
}

func NewMemoryCollectionRegistry(self AccountID, totalAssets uint32) *MemoryCollectionRegistry {
	return &MemoryCollectionRegistry{
		totalAssets: totalAssets,
		nextToken:   1,
		owners:      map[TokenID]AccountID{},
		tokenAssets: map[TokenID][]uint32{},
		failures:    map[string]error{},
		self:        self,
	}
}

func (m *MemoryCollectionRegistry) SetTotalAssets(total uint32) {
	m.mu.Lock()
	m.totalAssets = total
	m.mu.Unlock()
}

// FailOn makes every later call with selector return err. A nil err clears it.
func (m *MemoryCollectionRegistry) FailOn(selector string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, selector)
		return
	}
	m.failures[selector] = err
}

func (m *MemoryCollectionRegistry) Calls() []RegistryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegistryCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MemoryCollectionRegistry) OwnerOf(tokenID TokenID) (AccountID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[tokenID]
	return owner, ok
}

func (m *MemoryCollectionRegistry) AssetsOf(tokenID TokenID) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.tokenAssets[tokenID]...)
}

func (m *MemoryCollectionRegistry) record(call RegistryCall) error {
	m.calls = append(m.calls, call)
	return m.failures[call.Selector]
}

func (m *MemoryCollectionRegistry) TotalAssets(_ context.Context, opts CallOptions) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(RegistryCall{Selector: opts.Selector, GasLimit: opts.GasLimit}); err != nil {
		return 0, err
	}
	return m.totalAssets, nil
}

func (m *MemoryCollectionRegistry) Mint(_ context.Context, opts CallOptions) (TokenID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := RegistryCall{Selector: opts.Selector, GasLimit: opts.GasLimit}
	if opts.Value != nil {
		call.Value = new(big.Int).Set(opts.Value)
	}
	if err := m.record(call); err != nil {
		return 0, err
	}
	tokenID := m.nextToken
	m.nextToken++
	m.owners[tokenID] = m.self
	return tokenID, nil
}

func (m *MemoryCollectionRegistry) AddAssetToToken(_ context.Context, opts CallOptions, tokenID TokenID, assetID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(RegistryCall{Selector: opts.Selector, GasLimit: opts.GasLimit, TokenID: tokenID, AssetID: assetID}); err != nil {
		return err
	}
	if _, ok := m.owners[tokenID]; !ok {
		return fmt.Errorf("core: token %d not minted", tokenID)
	}
	if assetID >= m.totalAssets {
		return fmt.Errorf("core: asset %d not defined", assetID)
	}
	m.tokenAssets[tokenID] = append(m.tokenAssets[tokenID], assetID)
	return nil
}

func (m *MemoryCollectionRegistry) Transfer(_ context.Context, opts CallOptions, to AccountID, tokenID TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(RegistryCall{Selector: opts.Selector, GasLimit: opts.GasLimit, TokenID: tokenID, To: to}); err != nil {
		return err
	}
	if _, ok := m.owners[tokenID]; !ok {
		return fmt.Errorf("core: token %d not minted", tokenID)
	}
	m.owners[tokenID] = to
	return nil
}

type MemoryCatalogRegistry struct {
	Parts uint32
	Err   error
}

func (m MemoryCatalogRegistry) PartsCount(context.Context, CallOptions) (uint32, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Parts, nil
}

// StaticDialer serves fixed registries keyed by address.
type StaticDialer struct {
	Collections map[AccountID]CollectionRegistry
	Catalogs    map[AccountID]CatalogRegistry
	Err         error
}

func (d StaticDialer) Collection(address AccountID) (CollectionRegistry, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	registry, ok := d.Collections[address]
	if !ok {
		return nil, fmt.Errorf("core: no collection at %s", address)
	}
	return registry, nil
}

func (d StaticDialer) Catalog(address AccountID) (CatalogRegistry, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	registry, ok := d.Catalogs[address]
	if !ok {
		return nil, fmt.Errorf("core: no catalog at %s", address)
	}
	return registry, nil
}

var (
	_ CollectionRegistry = (*MemoryCollectionRegistry)(nil)
	_ CatalogRegistry    = MemoryCatalogRegistry{}
	_ RegistryDialer     = StaticDialer{}
)
