package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ReentrancyGuard admits one state-mutating call per key at a time.
type ReentrancyGuard interface {
	Enter(ctx context.Context, key string) (GuardHandle, error)
}

type GuardHandle interface {
	Exit(ctx context.Context) error
}

type MemoryReentrancyGuard struct {
	mu      sync.Mutex
	entered map[string]struct{}
}

func NewMemoryReentrancyGuard() *MemoryReentrancyGuard {
	return &MemoryReentrancyGuard{entered: make(map[string]struct{})}
}

func (g *MemoryReentrancyGuard) Enter(_ context.Context, key string) (GuardHandle, error) {
	if g == nil {
		return nil, fmt.Errorf("core: reentrancy guard is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("core: reentrancy guard key is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.entered[key]; busy {
		return nil, fmt.Errorf("core: %q already in progress: %w", key, ErrReentrantCall)
	}
	g.entered[key] = struct{}{}
	return &memoryGuardHandle{guard: g, key: key}, nil
}

type memoryGuardHandle struct {
	guard *MemoryReentrancyGuard
	key   string
	once  sync.Once
}

func (h *memoryGuardHandle) Exit(context.Context) error {
	if h == nil || h.guard == nil {
		return nil
	}
	h.once.Do(func() {
		h.guard.mu.Lock()
		delete(h.guard.entered, h.key)
		h.guard.mu.Unlock()
	})
	return nil
}

// AccessPolicy decides whether caller may run a management operation.
type AccessPolicy interface {
	Authorize(ctx context.Context, caller AccountID, operation string) error
}

type OwnerPolicy struct {
	Owner AccountID
}

func (p OwnerPolicy) Authorize(_ context.Context, caller AccountID, operation string) error {
	if p.Owner.IsZero() {
		return fmt.Errorf("core: owner is not configured for %s: %w", operation, ErrNotOwner)
	}
	if caller != p.Owner {
		return fmt.Errorf("core: %s rejected for %s: %w", operation, caller, ErrNotOwner)
	}
	return nil
}

// AllowAllPolicy authorizes every caller.
type AllowAllPolicy struct{}

func (AllowAllPolicy) Authorize(context.Context, AccountID, string) error {
	return nil
}

var (
	_ ReentrancyGuard = (*MemoryReentrancyGuard)(nil)
	_ AccessPolicy    = OwnerPolicy{}
	_ AccessPolicy    = AllowAllPolicy{}
)
