package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind is the stable text code carried by every error the orchestrator
// surfaces.
type ErrorKind string

const (
	ErrorNoAssetsDefined     ErrorKind = "LAZYMINT_NO_ASSETS_DEFINED"
	ErrorTooManyAssets       ErrorKind = "LAZYMINT_TOO_MANY_ASSETS"
	ErrorMinting             ErrorKind = "LAZYMINT_MINTING_ERROR"
	ErrorAddTokenAsset       ErrorKind = "LAZYMINT_ADD_TOKEN_ASSET_ERROR"
	ErrorOwnershipTransfer   ErrorKind = "LAZYMINT_OWNERSHIP_TRANSFER_ERROR"
	ErrorOwnable             ErrorKind = "LAZYMINT_OWNABLE_ERROR"
	ErrorReentrancy          ErrorKind = "LAZYMINT_REENTRANCY_ERROR"
	ErrorRegistryUnreachable ErrorKind = "LAZYMINT_REGISTRY_UNREACHABLE"
	ErrorBadInput            ErrorKind = "LAZYMINT_BAD_INPUT"
	ErrorNotFound            ErrorKind = "LAZYMINT_NOT_FOUND"
	ErrorInternal            ErrorKind = "LAZYMINT_INTERNAL_ERROR"
	ErrorKindUnknown         ErrorKind = ""
)

var (
	// ErrRegistryUnreachable marks transport or decoding faults: the remote
	// call never produced a usable answer.
	ErrRegistryUnreachable = errors.New("core: registry unreachable")
	ErrReentrantCall       = errors.New("core: reentrant call rejected")
	ErrNotOwner            = errors.New("core: caller is not the owner")
	ErrStateNotFound       = errors.New("core: orchestrator state not found")
	ErrReceiptNotFound     = errors.New("core: mint receipt not found")
)

func (k ErrorKind) category() goerrors.Category {
	switch k {
	case ErrorNoAssetsDefined, ErrorTooManyAssets:
		return goerrors.CategoryOperation
	case ErrorMinting, ErrorAddTokenAsset, ErrorOwnershipTransfer, ErrorRegistryUnreachable:
		return goerrors.CategoryExternal
	case ErrorOwnable:
		return goerrors.CategoryAuthz
	case ErrorReentrancy:
		return goerrors.CategoryConflict
	case ErrorBadInput:
		return goerrors.CategoryBadInput
	case ErrorNotFound:
		return goerrors.CategoryNotFound
	default:
		return goerrors.CategoryInternal
	}
}

func (k ErrorKind) httpStatus() int {
	switch k {
	case ErrorNoAssetsDefined, ErrorTooManyAssets:
		return http.StatusUnprocessableEntity
	case ErrorMinting, ErrorAddTokenAsset, ErrorOwnershipTransfer:
		return http.StatusBadGateway
	case ErrorRegistryUnreachable:
		return http.StatusServiceUnavailable
	}
	return lazymintHTTPStatus(k.category())
}

// NewError builds a go-errors envelope for kind.
func NewError(kind ErrorKind, message string) *goerrors.Error {
	return goerrors.New(message, kind.category()).
		WithCode(kind.httpStatus()).
		WithTextCode(string(kind))
}

// WrapError wraps source in a go-errors envelope for kind. A nil source
// behaves like NewError.
func WrapError(source error, kind ErrorKind, message string) *goerrors.Error {
	if source == nil {
		return NewError(kind, message)
	}
	wrapped := goerrors.Wrap(source, kind.category(), message)
	// Wrap keeps the category of an existing envelope.
	wrapped.Category = kind.category()
	return wrapped.
		WithCode(kind.httpStatus()).
		WithTextCode(string(kind))
}

// KindOf returns the ErrorKind carried by err, or ErrorKindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return ErrorKind(strings.TrimSpace(richErr.TextCode))
	}
	switch {
	case errors.Is(err, ErrRegistryUnreachable):
		return ErrorRegistryUnreachable
	case errors.Is(err, ErrReentrantCall):
		return ErrorReentrancy
	case errors.Is(err, ErrNotOwner):
		return ErrorOwnable
	case errors.Is(err, ErrStateNotFound), errors.Is(err, ErrReceiptNotFound):
		return ErrorNotFound
	}
	return ErrorKindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func lazymintErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrRegistryUnreachable):
		return WrapError(err, ErrorRegistryUnreachable, err.Error())
	case errors.Is(err, ErrReentrantCall):
		return WrapError(err, ErrorReentrancy, err.Error())
	case errors.Is(err, ErrNotOwner):
		return WrapError(err, ErrorOwnable, err.Error())
	case errors.Is(err, ErrStateNotFound), errors.Is(err, ErrReceiptNotFound):
		return WrapError(err, ErrorNotFound, err.Error())
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "negative"):
		return WrapError(err, ErrorBadInput, err.Error())
	case strings.Contains(msg, "not found"):
		return WrapError(err, ErrorNotFound, err.Error())
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	if mapped != nil && mapped.Category == goerrors.CategoryInternal {
		mapped.TextCode = string(ErrorInternal)
	}
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = lazymintHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return string(ErrorBadInput)
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return string(ErrorOwnable)
	case goerrors.CategoryConflict:
		return string(ErrorReentrancy)
	case goerrors.CategoryExternal:
		return string(ErrorRegistryUnreachable)
	case goerrors.CategoryNotFound:
		return string(ErrorNotFound)
	default:
		return string(ErrorInternal)
	}
}

func lazymintHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
