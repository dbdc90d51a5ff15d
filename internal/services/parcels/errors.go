package parcels

import (
	"github.com/pkg/errors"
)

var (
	// ErrProviderRequest aborts the whole run before any mutation.
	ErrProviderRequest = errors.New("provider request failed")
	// ErrNotify is logged; the run continues and status is still persisted.
	ErrNotify = errors.New("notification failed")
	// ErrStorage is logged per item.
	ErrStorage = errors.New("storage failed")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.err.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

func withKind(kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Kind returns the log label of err's sentinel.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrProviderRequest):
		return "provider_request"
	case errors.Is(err, ErrNotify):
		return "notify"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "unknown"
	}
}
