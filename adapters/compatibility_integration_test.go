package adapters_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	"github.com/goliatone/go-lazymint/adapters/gocommand"
	"github.com/goliatone/go-lazymint/adapters/gojob"
	"github.com/goliatone/go-lazymint/adapters/gologger"
	lazymintcommand "github.com/goliatone/go-lazymint/command"
	"github.com/goliatone/go-lazymint/core"
	lazymintquery "github.com/goliatone/go-lazymint/query"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	compatOwner      = core.AccountIDFromByte(0x01)
	compatCaller     = core.AccountIDFromByte(0x02)
	compatSelf       = core.AccountIDFromByte(0x5E)
	compatCollection = core.AccountIDFromByte(0xC0)
	compatCatalog    = core.AccountIDFromByte(0xCA)
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("lazymint", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	msg, err := gojob.NewMintJobMessage(core.MintRequest{Caller: compatCaller, Payment: big.NewInt(10)}, "idem_1")
	if err != nil {
		t.Fatalf("new mint job message: %v", err)
	}
	capturingEnqueuer := &compatEnqueuer{}
	if err := gojob.NewEnqueuerAdapter(capturingEnqueuer).Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if capturingEnqueuer.last == nil || capturingEnqueuer.last.JobID != gojob.JobIDMint {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(command.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("lazymint.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_CommandAndQueuePathsShareOrchestrator(t *testing.T) {
	ctx := context.Background()
	registry := core.NewMemoryCollectionRegistry(compatSelf, 10)
	receipts := core.NewMemoryReceiptStore()

	cfg := core.DefaultConfig()
	cfg.CollectionAddress = compatCollection.String()
	cfg.CatalogAddress = compatCatalog.String()
	cfg.OwnerAddress = compatOwner.String()
	orchestrator, err := core.NewOrchestrator(cfg,
		core.WithRegistryDialer(core.StaticDialer{
			Collections: map[core.AccountID]core.CollectionRegistry{compatCollection: registry},
			Catalogs:    map[core.AccountID]core.CatalogRegistry{compatCatalog: core.MemoryCatalogRegistry{Parts: 3}},
		}),
		core.WithReceiptStore(receipts),
		core.WithBlockClock(core.FixedBlockClock(1_700_000_000_000)),
	)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	subscriptions, err := gocommand.RegisterLazymint(adapter, orchestrator)
	if err != nil {
		t.Fatalf("register lazymint: %v", err)
	}
	defer gocommand.Unsubscribe(subscriptions)
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	collector := command.NewResult[core.MintResult]()
	if err := gocommand.Dispatch(command.ContextWithResult(ctx, collector), lazymintcommand.MintMessage{
		Caller:  compatCaller,
		Payment: big.NewInt(1_000),
	}); err != nil {
		t.Fatalf("dispatch mint: %v", err)
	}
	first, ok := collector.Load()
	if !ok || first.AssetIndex != 5 || first.Sequence != 0 {
		t.Fatalf("unexpected command mint result %+v (stored=%v)", first, ok)
	}

	msg, err := gojob.NewMintJobMessage(core.MintRequest{Caller: compatCaller}, "idem_2")
	if err != nil {
		t.Fatalf("new mint job message: %v", err)
	}
	delivery := &compatDelivery{msg: gojob.ToExecutionMessage(msg)}
	handler := gojob.NewMintJobHandler(orchestrator, gojob.DefaultRetryPolicy(), nil)
	second, err := handler.Handle(ctx, gojob.NewDeliveryAdapter(delivery, gojob.DefaultRetryPolicy()), 1)
	if err != nil {
		t.Fatalf("handle mint job: %v", err)
	}
	if !delivery.acked || second.AssetIndex != 7 || second.Sequence != 1 {
		t.Fatalf("unexpected queued mint result %+v (acked=%v)", second, delivery.acked)
	}

	listed, err := gocommand.Query[lazymintquery.ListMintReceiptsMessage, []core.MintReceipt](ctx, lazymintquery.ListMintReceiptsMessage{
		Caller: compatCaller,
	})
	if err != nil {
		t.Fatalf("query receipts: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected two receipts, got %d", len(listed))
	}
	for _, receipt := range listed {
		if receipt.Status != core.MintReceiptCompleted {
			t.Fatalf("expected completed receipt, got %q", receipt.Status)
		}
	}

	next := core.AccountIDFromByte(0xC1)
	if err := gocommand.Dispatch(ctx, lazymintcommand.SetCollectionAddressMessage{
		Caller:  compatCaller,
		Address: next,
	}); err == nil {
		t.Fatalf("expected non-owner setter to be rejected")
	}
	if err := gocommand.Dispatch(ctx, lazymintcommand.SetCollectionAddressMessage{
		Caller:  compatOwner,
		Address: next,
	}); err != nil {
		t.Fatalf("dispatch owner setter: %v", err)
	}
	collection, err := gocommand.Query[lazymintquery.GetCollectionAddressMessage, core.AccountID](ctx, lazymintquery.GetCollectionAddressMessage{})
	if err != nil {
		t.Fatalf("query collection: %v", err)
	}
	if collection != next {
		t.Fatalf("expected collection %s, got %s", next, collection)
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "lazymint.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	e.last = msg
	return queue.EnqueueReceipt{DispatchID: "compat-1"}, nil
}

type compatDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (d *compatDelivery) Message() *job.ExecutionMessage { return d.msg }

func (d *compatDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *compatDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	d.nackOpts = opts
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
