package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestLazymintErrorMapper_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		err      error
		kind     ErrorKind
		category goerrors.Category
		status   int
	}{
		{err: fmt.Errorf("dial: %w", ErrRegistryUnreachable), kind: ErrorRegistryUnreachable, category: goerrors.CategoryExternal, status: http.StatusServiceUnavailable},
		{err: fmt.Errorf("busy: %w", ErrReentrantCall), kind: ErrorReentrancy, category: goerrors.CategoryConflict, status: http.StatusConflict},
		{err: fmt.Errorf("setter: %w", ErrNotOwner), kind: ErrorOwnable, category: goerrors.CategoryAuthz, status: http.StatusForbidden},
		{err: errors.New("core: caller is required"), kind: ErrorBadInput, category: goerrors.CategoryBadInput, status: http.StatusBadRequest},
		{err: errors.New("boom"), kind: ErrorInternal, category: goerrors.CategoryInternal, status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		mapped := lazymintErrorMapper(tc.err)
		if mapped.TextCode != string(tc.kind) {
			t.Fatalf("%v: expected text code %q, got %q", tc.err, tc.kind, mapped.TextCode)
		}
		if mapped.Category != tc.category {
			t.Fatalf("%v: expected category %q, got %q", tc.err, tc.category, mapped.Category)
		}
		if mapped.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, mapped.Code)
		}
	}
}

func TestNewError_KindsCarryHTTPStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		ErrorNoAssetsDefined:   http.StatusUnprocessableEntity,
		ErrorTooManyAssets:     http.StatusUnprocessableEntity,
		ErrorMinting:           http.StatusBadGateway,
		ErrorAddTokenAsset:     http.StatusBadGateway,
		ErrorOwnershipTransfer: http.StatusBadGateway,
		ErrorOwnable:           http.StatusForbidden,
		ErrorReentrancy:        http.StatusConflict,
	}
	for kind, status := range cases {
		err := NewError(kind, "x")
		if err.Code != status {
			t.Fatalf("%s: expected status %d, got %d", kind, status, err.Code)
		}
		if KindOf(err) != kind {
			t.Fatalf("%s: expected KindOf round trip, got %q", kind, KindOf(err))
		}
	}
}

func TestWrapError_RecategorizesExistingEnvelope(t *testing.T) {
	inner := NewError(ErrorRegistryUnreachable, "timeout")
	outer := WrapError(inner, ErrorOwnershipTransfer, "transfer failed")
	if KindOf(outer) != ErrorOwnershipTransfer {
		t.Fatalf("expected outer kind, got %q", KindOf(outer))
	}
	if outer.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway, got %d", outer.Code)
	}
	if outer.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", outer.Category)
	}
}

func TestKindOf_FallsBackToSentinels(t *testing.T) {
	if KindOf(nil) != ErrorKindUnknown {
		t.Fatalf("expected unknown for nil")
	}
	if KindOf(fmt.Errorf("x: %w", ErrRegistryUnreachable)) != ErrorRegistryUnreachable {
		t.Fatalf("expected unreachable sentinel kind")
	}
	if KindOf(errors.New("plain")) != ErrorKindUnknown {
		t.Fatalf("expected unknown for plain error")
	}
	if !IsKind(fmt.Errorf("x: %w", ErrNotOwner), ErrorOwnable) {
		t.Fatalf("expected ownable sentinel kind")
	}
}
