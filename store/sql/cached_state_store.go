package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-lazymint/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const orchestratorStateCacheKeyPrefix = "go-lazymint::orchestrator_state::v1"

// CachedStateStore serves Load from the cache. The sequence counter in a
// cached state may be stale; NextSequence always reaches the base store.
type CachedStateStore struct {
	base  core.StateStore
	cache repositorycache.CacheService
}

func NewCachedStateStore(
	base core.StateStore,
	cacheService repositorycache.CacheService,
) (*CachedStateStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base state store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: state cache service is required")
	}
	return &CachedStateStore{base: base, cache: cacheService}, nil
}

// OrchestratorStateCacheKey returns go-lazymint::orchestrator_state::v1::<id>
// with the id URL-path escaped.
func OrchestratorStateCacheKey(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: orchestrator id is required")
	}
	return orchestratorStateCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedStateStore) Ensure(ctx context.Context, initial core.OrchestratorState) (core.OrchestratorState, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: cached state store is not configured")
	}
	state, err := s.base.Ensure(ctx, initial)
	if err != nil {
		return core.OrchestratorState{}, err
	}
	if err := s.invalidate(ctx, state.ID); err != nil {
		return core.OrchestratorState{}, err
	}
	return state, nil
}

func (s *CachedStateStore) Load(ctx context.Context, id string) (core.OrchestratorState, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: cached state store is not configured")
	}
	cacheKey, err := OrchestratorStateCacheKey(id)
	if err != nil {
		return core.OrchestratorState{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.OrchestratorState, error) {
		return s.base.Load(ctx, strings.TrimSpace(id))
	})
}

func (s *CachedStateStore) SaveAddresses(
	ctx context.Context,
	id string,
	collection core.AccountID,
	catalog core.AccountID,
) (core.OrchestratorState, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OrchestratorState{}, fmt.Errorf("sqlstore: cached state store is not configured")
	}
	state, err := s.base.SaveAddresses(ctx, id, collection, catalog)
	if err != nil {
		return core.OrchestratorState{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return core.OrchestratorState{}, err
	}
	return state, nil
}

func (s *CachedStateStore) NextSequence(ctx context.Context, id string) (uint64, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached state store is not configured")
	}
	return s.base.NextSequence(ctx, id)
}

func (s *CachedStateStore) invalidate(ctx context.Context, id string) error {
	cacheKey, err := OrchestratorStateCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
