package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-lazymint/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	stateStore   *StateStore
	receiptStore *ReceiptStore
	cachedState  *CachedStateStore
	cacheService repositorycache.CacheService
}

type FactoryOption func(*RepositoryFactory)

// WithStateCache puts a CachedStateStore in front of the SQL state store.
func WithStateCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.cacheService = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.stateStore != nil && f.receiptStore != nil {
		return nil
	}
	return f.initStores()
}

// StateStore returns the cached store when a cache service was configured.
func (f *RepositoryFactory) StateStore() core.StateStore {
	if f == nil {
		return nil
	}
	if f.cachedState != nil {
		return f.cachedState
	}
	if f.stateStore == nil {
		return nil
	}
	return f.stateStore
}

func (f *RepositoryFactory) ReceiptStore() core.ReceiptStore {
	if f == nil || f.receiptStore == nil {
		return nil
	}
	return f.receiptStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

// Options returns the orchestrator options that plug these stores in.
func (f *RepositoryFactory) Options() []core.Option {
	if f == nil {
		return nil
	}
	return []core.Option{
		core.WithStateStore(f.StateStore()),
		core.WithReceiptStore(f.ReceiptStore()),
	}
}

func (f *RepositoryFactory) initStores() error {
	stateStore, err := NewStateStore(f.db)
	if err != nil {
		return err
	}
	f.stateStore = stateStore
	receiptStore, err := NewReceiptStore(f.db)
	if err != nil {
		return err
	}
	f.receiptStore = receiptStore
	if f.cacheService != nil {
		cached, cacheErr := NewCachedStateStore(stateStore, f.cacheService)
		if cacheErr != nil {
			return cacheErr
		}
		f.cachedState = cached
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
