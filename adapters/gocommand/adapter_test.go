package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	lazymintcommand "github.com/goliatone/go-lazymint/command"
	"github.com/goliatone/go-lazymint/core"
	lazymintquery "github.com/goliatone/go-lazymint/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "lazymint.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "lazymint.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "lazymint.test.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "lazymint.test.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("lazymint.test.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestRegisterLazymint_DispatchesCommandsAndQueries(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	caller := core.AccountIDFromByte(0x02)
	service := &stubService{collection: core.AccountIDFromByte(0xC0)}

	subscriptions, err := RegisterLazymint(adapter, service)
	if err != nil {
		t.Fatalf("register lazymint: %v", err)
	}
	defer Unsubscribe(subscriptions)
	if len(subscriptions) != 7 {
		t.Fatalf("expected 7 subscriptions, got %d", len(subscriptions))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	collector := command.NewResult[core.MintResult]()
	ctx := command.ContextWithResult(context.Background(), collector)
	if err := Dispatch(ctx, lazymintcommand.MintMessage{Caller: caller}); err != nil {
		t.Fatalf("dispatch mint: %v", err)
	}
	if service.mints != 1 {
		t.Fatalf("expected one mint, got %d", service.mints)
	}
	result, ok := collector.Load()
	if !ok || result.TokenID != 1 {
		t.Fatalf("expected stored mint result, got %#v (stored=%v)", result, ok)
	}

	next := core.AccountIDFromByte(0xC1)
	if err := Dispatch(context.Background(), lazymintcommand.SetCollectionAddressMessage{Caller: caller, Address: next}); err != nil {
		t.Fatalf("dispatch set collection: %v", err)
	}
	collection, err := Query[lazymintquery.GetCollectionAddressMessage, core.AccountID](
		context.Background(),
		lazymintquery.GetCollectionAddressMessage{},
	)
	if err != nil {
		t.Fatalf("query collection: %v", err)
	}
	if collection != next {
		t.Fatalf("expected collection %s, got %s", next, collection)
	}
}

func TestRegisterLazymint_RequiresService(t *testing.T) {
	if _, err := RegisterLazymint(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}

type stubService struct {
	mints      int
	collection core.AccountID
	catalog    core.AccountID
}

func (s *stubService) Mint(context.Context, core.MintRequest) (core.MintResult, error) {
	s.mints++
	return core.MintResult{TokenID: core.TokenID(s.mints), State: core.StateCompleted}, nil
}

func (s *stubService) SetCollectionAddress(_ context.Context, _ core.AccountID, address core.AccountID) error {
	s.collection = address
	return nil
}

func (s *stubService) SetCatalogAddress(_ context.Context, _ core.AccountID, address core.AccountID) error {
	s.catalog = address
	return nil
}

func (s *stubService) CollectionAddress(context.Context) (core.AccountID, error) {
	return s.collection, nil
}

func (s *stubService) CatalogAddress(context.Context) (core.AccountID, error) {
	return s.catalog, nil
}

func (s *stubService) MintReceipt(context.Context, string) (core.MintReceipt, error) {
	return core.MintReceipt{}, core.ErrReceiptNotFound
}

func (s *stubService) MintReceipts(context.Context, core.AccountID, int) ([]core.MintReceipt, error) {
	return nil, nil
}
