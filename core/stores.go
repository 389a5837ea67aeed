package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateStore persists the orchestrator-owned state. NextSequence must be
// atomic: it returns the stored counter and writes counter+1.
type StateStore interface {
	Ensure(ctx context.Context, initial OrchestratorState) (OrchestratorState, error)
	Load(ctx context.Context, id string) (OrchestratorState, error)
	SaveAddresses(ctx context.Context, id string, collection AccountID, catalog AccountID) (OrchestratorState, error)
	NextSequence(ctx context.Context, id string) (uint64, error)
}

type ReceiptStore interface {
	Append(ctx context.Context, receipt MintReceipt) (MintReceipt, error)
	Get(ctx context.Context, id string) (MintReceipt, error)
	ListByCaller(ctx context.Context, caller AccountID, limit int) ([]MintReceipt, error)
}

// StoreSequence adapts a StateStore row counter into a SequenceSource.
type StoreSequence struct {
	Store StateStore
	ID    string
}

func (s StoreSequence) Next(ctx context.Context) (uint64, error) {
	if s.Store == nil {
		return 0, fmt.Errorf("core: state store is not configured")
	}
	return s.Store.NextSequence(ctx, s.ID)
}

type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]OrchestratorState
	nowFn  func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: map[string]OrchestratorState{},
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStateStore) Ensure(_ context.Context, initial OrchestratorState) (OrchestratorState, error) {
	id := strings.TrimSpace(initial.ID)
	if id == "" {
		return OrchestratorState{}, fmt.Errorf("core: orchestrator id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.states[id]; ok {
		return existing, nil
	}
	initial.ID = id
	initial.UpdatedAt = m.nowFn()
	m.states[id] = initial
	return initial, nil
}

func (m *MemoryStateStore) Load(_ context.Context, id string) (OrchestratorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[strings.TrimSpace(id)]
	if !ok {
		return OrchestratorState{}, ErrStateNotFound
	}
	return state, nil
}

func (m *MemoryStateStore) SaveAddresses(
	_ context.Context,
	id string,
	collection AccountID,
	catalog AccountID,
) (OrchestratorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = strings.TrimSpace(id)
	state, ok := m.states[id]
	if !ok {
		return OrchestratorState{}, ErrStateNotFound
	}
	state.CollectionAddress = collection
	state.CatalogAddress = catalog
	state.UpdatedAt = m.nowFn()
	m.states[id] = state
	return state, nil
}

func (m *MemoryStateStore) NextSequence(_ context.Context, id string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = strings.TrimSpace(id)
	state, ok := m.states[id]
	if !ok {
		return 0, ErrStateNotFound
	}
	current := state.SequenceCounter
	state.SequenceCounter++
	state.UpdatedAt = m.nowFn()
	m.states[id] = state
	return current, nil
}

type MemoryReceiptStore struct {
	mu       sync.Mutex
	receipts []MintReceipt
}

func NewMemoryReceiptStore() *MemoryReceiptStore {
	return &MemoryReceiptStore{}
}

func (m *MemoryReceiptStore) Append(_ context.Context, receipt MintReceipt) (MintReceipt, error) {
	if strings.TrimSpace(receipt.ID) == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}
	receipt.Metadata = copyAnyMap(receipt.Metadata)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, receipt)
	return receipt, nil
}

func (m *MemoryReceiptStore) Get(_ context.Context, id string) (MintReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, receipt := range m.receipts {
		if receipt.ID == strings.TrimSpace(id) {
			return receipt, nil
		}
	}
	return MintReceipt{}, ErrReceiptNotFound
}

func (m *MemoryReceiptStore) ListByCaller(_ context.Context, caller AccountID, limit int) ([]MintReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MintReceipt, 0)
	for _, receipt := range m.receipts {
		if receipt.Caller == caller {
			out = append(out, receipt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ StateStore     = (*MemoryStateStore)(nil)
	_ ReceiptStore   = (*MemoryReceiptStore)(nil)
	_ SequenceSource = StoreSequence{}
)
