package main

import (
	"context"
	"fmt"

	jobsql "github.com/goliatone/go-job/queue/adapters/postgres"
	lazymint "github.com/goliatone/go-lazymint"
	"github.com/goliatone/go-lazymint/core"
	sqlstore "github.com/goliatone/go-lazymint/store/sql"
	"github.com/goliatone/go-lazymint/transport"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type runtime struct {
	client       *persistence.Client
	driver       string
	orchestrator *lazymint.Orchestrator
	facade       *lazymint.Facade
}

func openRuntime(ctx context.Context, cfg fileConfig, extra ...lazymint.Option) (*runtime, error) {
	dbConfig := cfg.databaseConfig()
	client, err := sqlstore.Open(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	factoryOpts := []sqlstore.FactoryOption{}
	if ttl := cfg.stateCacheTTL(); ttl > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = ttl
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("state cache: %w", err)
		}
		factoryOpts = append(factoryOpts, sqlstore.WithStateCache(cacheService))
	}
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, factoryOpts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	dialer, err := transport.NewRPCDialerFromRegistry(
		transport.NewDefaultRegistry(),
		cfg.Registry.Transport,
		cfg.Registry.Endpoint,
		cfg.transportConfig(),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	for key, value := range cfg.Registry.Headers {
		dialer.Headers[key] = value
	}

	opts := append(factory.Options(),
		lazymint.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticRawConfigLoader{
			Values: cfg.orchestratorValues(),
		})),
		lazymint.WithRegistryDialer(dialer),
	)
	opts = append(opts, extra...)
	orchestrator, err := lazymint.Setup(lazymint.Config{}, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	facade, err := lazymint.NewFacade(orchestrator)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &runtime{
		client:       client,
		driver:       dbConfig.GetDriver(),
		orchestrator: orchestrator,
		facade:       facade,
	}, nil
}

// jobQueue opens the mint job queue on the runtime database.
func (r *runtime) jobQueue(ctx context.Context) (*jobsql.Adapter, error) {
	return sqlstore.OpenJobQueue(ctx, r.client.DB().DB, r.driver)
}

func (r *runtime) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
