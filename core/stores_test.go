package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStateStore_SequenceAndAddresses(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected state not found, got %v", err)
	}
	if _, err := store.Ensure(ctx, OrchestratorState{ID: "main", CollectionAddress: testCollection}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for want := uint64(0); want < 3; want++ {
		got, err := store.NextSequence(ctx, "main")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	state, err := store.SaveAddresses(ctx, "main", testCatalog, testCollection)
	if err != nil {
		t.Fatalf("save addresses: %v", err)
	}
	if state.CollectionAddress != testCatalog || state.SequenceCounter != 3 {
		t.Fatalf("unexpected state %+v", state)
	}
	ensured, _ := store.Ensure(ctx, OrchestratorState{ID: "main"})
	if ensured.CollectionAddress != testCatalog {
		t.Fatalf("expected ensure to keep existing state")
	}
}

func TestMemoryReceiptStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryReceiptStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := store.Append(ctx, MintReceipt{Caller: testCaller, Status: MintReceiptCompleted, CreatedAt: base})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	newer, _ := store.Append(ctx, MintReceipt{Caller: testCaller, Status: MintReceiptAborted, CreatedAt: base.Add(time.Minute)})
	_, _ = store.Append(ctx, MintReceipt{Caller: testOwner, Status: MintReceiptCompleted, CreatedAt: base})

	if older.ID == "" || older.ID == newer.ID {
		t.Fatalf("expected generated distinct ids")
	}
	list, err := store.ListByCaller(ctx, testCaller, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("expected newest first for caller, got %+v", list)
	}
	limited, _ := store.ListByCaller(ctx, testCaller, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
	got, err := store.Get(ctx, older.ID)
	if err != nil || got.Status != MintReceiptCompleted {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected receipt not found, got %v", err)
	}
}

func TestStoreSequence_DelegatesToStateStore(t *testing.T) {
	store := NewMemoryStateStore()
	_, _ = store.Ensure(context.Background(), OrchestratorState{ID: "seq", SequenceCounter: 41})
	source := StoreSequence{Store: store, ID: "seq"}
	got, err := source.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != 41 {
		t.Fatalf("expected 41, got %d", got)
	}
	if _, err := (StoreSequence{}).Next(context.Background()); err == nil {
		t.Fatalf("expected missing store to fail")
	}
}
