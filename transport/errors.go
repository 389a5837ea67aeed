package transport

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-lazymint/core"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message)
	err.Category = category
	err.WithCode(code).WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// unreachable marks err so the gateway classifies the call as never having
// produced an answer.
func unreachable(err error) error {
	if err == nil || errors.Is(err, core.ErrRegistryUnreachable) {
		return err
	}
	return errors.Join(err, core.ErrRegistryUnreachable)
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return string(core.ErrorBadInput)
	case goerrors.CategoryExternal:
		return string(core.ErrorRegistryUnreachable)
	default:
		return string(core.ErrorInternal)
	}
}
