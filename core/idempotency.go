package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const DefaultClaimLease = 10 * time.Minute

type claimStatus string

const (
	claimStatusProcessing claimStatus = "processing"
	claimStatusRetryReady claimStatus = "retry_ready"
	claimStatusComplete   claimStatus = "complete"
)

type claimEntry struct {
	status    claimStatus
	claimID   string
	attempts  int
	lease     time.Duration
	expiresAt time.Time
	retryAt   time.Time
}

// MemoryClaimStore is a process-local IdempotencyClaimStore. Completed keys
// are remembered for one lease after completion.
type MemoryClaimStore struct {
	mu      sync.Mutex
	entries map[string]claimEntry
	claims  map[string]string
	nextID  int
	Now     func() time.Time
}

func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{
		entries: map[string]claimEntry{},
		claims:  map[string]string{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryClaimStore) Claim(_ context.Context, key string, lease time.Duration) (string, bool, error) {
	if s == nil {
		return "", false, NewError(ErrorInternal, "core: claim store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, NewError(ErrorBadInput, "core: idempotency key is required")
	}
	if lease <= 0 {
		lease = DefaultClaimLease
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(now)

	entry, exists := s.entries[key]
	if exists {
		switch entry.status {
		case claimStatusComplete, claimStatusProcessing:
			if now.Before(entry.expiresAt) {
				return "", false, nil
			}
		case claimStatusRetryReady:
			if now.Before(entry.retryAt) {
				return "", false, nil
			}
		}
		if entry.claimID != "" {
			delete(s.claims, entry.claimID)
		}
	}

	s.nextID++
	claimID := fmt.Sprintf("claim_%d", s.nextID)
	s.entries[key] = claimEntry{
		status:    claimStatusProcessing,
		claimID:   claimID,
		attempts:  entry.attempts + 1,
		lease:     lease,
		expiresAt: now.Add(lease),
	}
	s.claims[claimID] = key
	return claimID, true, nil
}

func (s *MemoryClaimStore) Complete(_ context.Context, claimID string) error {
	return s.settle(claimID, func(entry *claimEntry, now time.Time) {
		entry.status = claimStatusComplete
		entry.expiresAt = now.Add(entry.lease)
		entry.retryAt = time.Time{}
	})
}

// Fail releases the claim. The key can be claimed again from retryAt, or
// immediately when retryAt is zero.
func (s *MemoryClaimStore) Fail(_ context.Context, claimID string, _ error, retryAt time.Time) error {
	return s.settle(claimID, func(entry *claimEntry, now time.Time) {
		if retryAt.IsZero() {
			retryAt = now
		}
		entry.status = claimStatusRetryReady
		entry.retryAt = retryAt.UTC()
		entry.expiresAt = time.Time{}
	})
}

// Attempts reports how many times key has been claimed.
func (s *MemoryClaimStore) Attempts(key string) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[strings.TrimSpace(key)].attempts
}

func (s *MemoryClaimStore) settle(claimID string, apply func(entry *claimEntry, now time.Time)) error {
	if s == nil {
		return NewError(ErrorInternal, "core: claim store is nil")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return NewError(ErrorBadInput, "core: claim id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.claims[claimID]
	if !ok {
		return nil
	}
	delete(s.claims, claimID)
	entry, exists := s.entries[key]
	if !exists || entry.claimID != claimID || entry.status != claimStatusProcessing {
		return nil
	}
	apply(&entry, s.now())
	s.entries[key] = entry
	return nil
}

func (s *MemoryClaimStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MemoryClaimStore) evictExpiredLocked(now time.Time) {
	for key, entry := range s.entries {
		if entry.status == claimStatusComplete && !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
