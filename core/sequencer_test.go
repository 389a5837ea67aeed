package core

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"
)

func newTestSequencer(registry *MemoryCollectionRegistry, policy FailurePolicy) (*Sequencer, *MemorySequence) {
	dialer := StaticDialer{Collections: map[AccountID]CollectionRegistry{testCollection: registry}}
	sequence := NewMemorySequence(0)
	sequencer := NewSequencer(
		NewGateway(dialer, 0, 0),
		NewSelector(sequence),
		FixedBlockClock(1_700_000_000_000),
		policy,
	)
	return sequencer, sequence
}

func TestSequencer_HappyPathRunsStepsInOrder(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	sequencer, sequence := newTestSequencer(registry, HardenedFailurePolicy())

	result, err := sequencer.Run(context.Background(), SequenceInput{
		CollectionAddress: testCollection,
		Caller:            testCaller,
		Payment:           big.NewInt(1_000),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.State != StateCompleted || result.Reached != StateCompleted {
		t.Fatalf("expected completed, got state=%q reached=%q", result.State, result.Reached)
	}
	if result.TokenID != 1 {
		t.Fatalf("expected token 1, got %d", result.TokenID)
	}
	if result.AssetIndex != 5 || result.Sequence != 0 {
		t.Fatalf("expected asset 5 at sequence 0, got %d at %d", result.AssetIndex, result.Sequence)
	}

	want := []string{SelectorTotalAssets, SelectorMint, SelectorAddAssetToToken, SelectorTransfer}
	calls := registry.Calls()
	if got := callSelectors(calls); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	if calls[1].Value == nil || calls[1].Value.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected payment forwarded to mint, got %v", calls[1].Value)
	}
	for _, call := range calls {
		if call.GasLimit != DefaultCallGasLimit {
			t.Fatalf("expected gas limit %d on %s, got %d", DefaultCallGasLimit, call.Selector, call.GasLimit)
		}
	}
	if calls[2].TokenID != calls[3].TokenID || calls[2].TokenID != result.TokenID {
		t.Fatalf("expected attach and transfer to reuse minted token")
	}
	if owner, _ := registry.OwnerOf(result.TokenID); owner != testCaller {
		t.Fatalf("expected caller to own token, got %s", owner)
	}
	if assets := registry.AssetsOf(result.TokenID); !reflect.DeepEqual(assets, []uint32{5}) {
		t.Fatalf("expected asset 5 attached, got %v", assets)
	}
	if got := sequence.current(); got != 1 {
		t.Fatalf("expected counter 1, got %d", got)
	}
	if len(result.Steps) != 4 {
		t.Fatalf("expected four step records, got %d", len(result.Steps))
	}
}

func TestSequencer_CounterAdvancesOncePerMint(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	sequencer, sequence := newTestSequencer(registry, HardenedFailurePolicy())
	wantIndices := []uint32{5, 7, 4}

	for i, want := range wantIndices {
		result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if result.AssetIndex != want {
			t.Fatalf("run %d: expected asset %d, got %d", i, want, result.AssetIndex)
		}
		if result.TokenID != TokenID(i+1) {
			t.Fatalf("run %d: expected token %d, got %d", i, i+1, result.TokenID)
		}
	}
	if got := sequence.current(); got != uint64(len(wantIndices)) {
		t.Fatalf("expected counter %d, got %d", len(wantIndices), got)
	}
}

func TestSequencer_AssetCountBoundsAbortBeforeMint(t *testing.T) {
	cases := []struct {
		total uint32
		kind  ErrorKind
	}{
		{total: 0, kind: ErrorNoAssetsDefined},
		{total: 256, kind: ErrorTooManyAssets},
		{total: 1000, kind: ErrorTooManyAssets},
	}
	for _, tc := range cases {
		registry := NewMemoryCollectionRegistry(testSelf, tc.total)
		sequencer, sequence := newTestSequencer(registry, HardenedFailurePolicy())

		result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
		if !IsKind(err, tc.kind) {
			t.Fatalf("total=%d: expected %s, got %v", tc.total, tc.kind, err)
		}
		if result.State != StateAborted || result.Reached != StateStart {
			t.Fatalf("total=%d: expected abort from start, got state=%q reached=%q", tc.total, result.State, result.Reached)
		}
		if got := callSelectors(registry.Calls()); !reflect.DeepEqual(got, []string{SelectorTotalAssets}) {
			t.Fatalf("total=%d: expected only the count read, got %v", tc.total, got)
		}
		if got := sequence.current(); got != 0 {
			t.Fatalf("total=%d: expected untouched counter, got %d", tc.total, got)
		}
	}
}

func TestSequencer_UnreachableCountReadAborts(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorTotalAssets, ErrRegistryUnreachable)
	sequencer, sequence := newTestSequencer(registry, HardenedFailurePolicy())

	result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	if !IsKind(err, ErrorRegistryUnreachable) {
		t.Fatalf("expected registry unreachable, got %v", err)
	}
	if result.Drawn {
		t.Fatalf("expected no draw")
	}
	if got := sequence.current(); got != 0 {
		t.Fatalf("expected untouched counter, got %d", got)
	}
	if len(registry.Calls()) != 1 {
		t.Fatalf("expected a single call, got %d", len(registry.Calls()))
	}
}

func TestSequencer_MissingCollectionIsUnreachable(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	sequencer, _ := newTestSequencer(registry, HardenedFailurePolicy())

	_, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: AccountID{}, Caller: testCaller})
	if !IsKind(err, ErrorRegistryUnreachable) {
		t.Fatalf("expected registry unreachable for zero address, got %v", err)
	}
	if len(registry.Calls()) != 0 {
		t.Fatalf("expected no registry calls")
	}
}

func TestSequencer_MintFailureStopsSequence(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorMint, errors.New("insufficient payment"))
	sequencer, sequence := newTestSequencer(registry, LegacyFailurePolicy())

	result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	if !IsKind(err, ErrorMinting) {
		t.Fatalf("expected minting error, got %v", err)
	}
	if result.Reached != StateCountRead {
		t.Fatalf("expected count_read reached, got %q", result.Reached)
	}
	if got := callSelectors(registry.Calls()); !reflect.DeepEqual(got, []string{SelectorTotalAssets, SelectorMint}) {
		t.Fatalf("expected read and mint only, got %v", got)
	}
	if got := sequence.current(); got != 0 {
		t.Fatalf("expected untouched counter, got %d", got)
	}
}

func TestSequencer_AttachFailureHardenedAborts(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorAddAssetToToken, errors.New("asset rejected"))
	sequencer, sequence := newTestSequencer(registry, HardenedFailurePolicy())

	result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	if !IsKind(err, ErrorAddTokenAsset) {
		t.Fatalf("expected add token asset error, got %v", err)
	}
	if result.Reached != StateMinted || result.TokenID != 1 {
		t.Fatalf("expected minted token 1 before abort, got reached=%q token=%d", result.Reached, result.TokenID)
	}
	if got := callSelectors(registry.Calls()); !reflect.DeepEqual(got, []string{SelectorTotalAssets, SelectorMint, SelectorAddAssetToToken}) {
		t.Fatalf("expected no transfer after attach failure, got %v", got)
	}
	if owner, _ := registry.OwnerOf(1); owner != testSelf {
		t.Fatalf("expected token to stay with the orchestrator, got %s", owner)
	}
	if got := sequence.current(); got != 1 {
		t.Fatalf("expected counter to keep its advance, got %d", got)
	}
}

func TestSequencer_AttachFailureLegacyContinues(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorAddAssetToToken, errors.New("asset rejected"))
	sequencer, _ := newTestSequencer(registry, LegacyFailurePolicy())

	var tolerated []StepRecord
	sequencer.OnTolerated(func(_ context.Context, record StepRecord) {
		tolerated = append(tolerated, record)
	})

	result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	if err != nil {
		t.Fatalf("expected legacy sequence to complete, got %v", err)
	}
	if !result.AttachSkipped || result.State != StateCompleted {
		t.Fatalf("expected completed with skipped attach, got %+v", result)
	}
	if len(tolerated) != 1 || tolerated[0].Step != StepAddAsset {
		t.Fatalf("expected one tolerated add_asset failure, got %+v", tolerated)
	}
	if owner, _ := registry.OwnerOf(result.TokenID); owner != testCaller {
		t.Fatalf("expected token transferred to caller, got %s", owner)
	}
	if assets := registry.AssetsOf(result.TokenID); len(assets) != 0 {
		t.Fatalf("expected no attached asset, got %v", assets)
	}
}

func TestSequencer_TransferFailureAborts(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorTransfer, errors.New("transfer refused"))
	sequencer, _ := newTestSequencer(registry, LegacyFailurePolicy())

	result, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	if !IsKind(err, ErrorOwnershipTransfer) {
		t.Fatalf("expected ownership transfer error, got %v", err)
	}
	if result.Reached != StateAssetAttached {
		t.Fatalf("expected asset_attached reached, got %q", result.Reached)
	}
	if assets := registry.AssetsOf(1); !reflect.DeepEqual(assets, []uint32{5}) {
		t.Fatalf("expected attached asset to remain, got %v", assets)
	}
}

func TestSequencer_AbortCarriesStepMetadata(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 10)
	registry.FailOn(SelectorTransfer, errors.New("transfer refused"))
	sequencer, _ := newTestSequencer(registry, HardenedFailurePolicy())

	_, err := sequencer.Run(context.Background(), SequenceInput{CollectionAddress: testCollection, Caller: testCaller})
	mapped := lazymintErrorMapper(err)
	if mapped.Metadata["step"] != string(StepTransfer) {
		t.Fatalf("expected step metadata, got %#v", mapped.Metadata)
	}
	if mapped.Metadata["token_id"] != uint64(1) {
		t.Fatalf("expected token id metadata, got %#v", mapped.Metadata["token_id"])
	}
	if mapped.Metadata["asset_index"] != uint32(5) {
		t.Fatalf("expected asset index metadata, got %#v", mapped.Metadata["asset_index"])
	}
}

func TestFailurePolicy_OnlyAttachMayContinue(t *testing.T) {
	policy := HardenedFailurePolicy().
		With(StepMint, FailureActionContinue).
		With(StepTransfer, FailureActionContinue).
		With(StepReadTotalAssets, FailureActionContinue)
	for _, step := range []Step{StepReadTotalAssets, StepMint, StepTransfer} {
		if policy.Action(step) != FailureActionAbort {
			t.Fatalf("expected %s to stay abort", step)
		}
	}
	if policy.Action(StepAddAsset) != FailureActionAbort {
		t.Fatalf("expected hardened add_asset to abort")
	}
	if LegacyFailurePolicy().Action(StepAddAsset) != FailureActionContinue {
		t.Fatalf("expected legacy add_asset to continue")
	}
	if HardenedFailurePolicy().With(StepAddAsset, FailureActionContinue).Action(StepAddAsset) != FailureActionContinue {
		t.Fatalf("expected override to make add_asset continue")
	}
}
