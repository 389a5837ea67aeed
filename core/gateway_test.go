package core

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestClassifyCall(t *testing.T) {
	cases := []struct {
		err  error
		want CallStatus
	}{
		{err: nil, want: CallStatusSuccess},
		{err: errors.New("revert"), want: CallStatusFailure},
		{err: ErrRegistryUnreachable, want: CallStatusUnreachable},
		{err: context.DeadlineExceeded, want: CallStatusUnreachable},
		{err: context.Canceled, want: CallStatusUnreachable},
	}
	for _, tc := range cases {
		if got := classifyCall(tc.err).Status; got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestGateway_PassesCallOptions(t *testing.T) {
	registry := NewMemoryCollectionRegistry(testSelf, 4)
	gateway := NewGateway(StaticDialer{Collections: map[AccountID]CollectionRegistry{testCollection: registry}}, 77, time.Second)

	payment := big.NewInt(12)
	tokenID, outcome := gateway.MintToken(context.Background(), testCollection, payment)
	if !outcome.Succeeded() || tokenID != 1 {
		t.Fatalf("mint: %+v token=%d", outcome, tokenID)
	}
	payment.SetInt64(99)

	calls := registry.Calls()
	if calls[0].GasLimit != 77 {
		t.Fatalf("expected gas limit 77, got %d", calls[0].GasLimit)
	}
	if calls[0].Value.Int64() != 12 {
		t.Fatalf("expected payment to be copied, got %s", calls[0].Value)
	}
}

func TestGateway_DialFailureIsUnreachable(t *testing.T) {
	gateway := NewGateway(StaticDialer{Err: errors.New("no route")}, 0, 0)
	if _, outcome := gateway.ReadTotalAssets(context.Background(), testCollection); outcome.Status != CallStatusUnreachable {
		t.Fatalf("expected unreachable, got %q", outcome.Status)
	}
	if _, outcome := gateway.CatalogPartsCount(context.Background(), testCatalog); outcome.Status != CallStatusUnreachable {
		t.Fatalf("expected unreachable catalog, got %q", outcome.Status)
	}
	if outcome := (*Gateway)(nil).TransferToken(context.Background(), testCollection, 1, testCaller); outcome.Status != CallStatusUnreachable {
		t.Fatalf("expected unreachable for nil gateway, got %q", outcome.Status)
	}
}
