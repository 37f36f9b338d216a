package exchange

import (
	"errors"
	"fmt"

	"github.com/roach88/wallet/internal/format"
)

// Kind classifies an orchestrator failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors this package did not
	// produce.
	KindUnknown Kind = iota

	// KindFormat means no adapter is registered for the format ID. Nothing
	// was read or written.
	KindFormat

	// KindParse means the source was syntactically or structurally broken.
	KindParse

	// KindValidation means a present field held a corrupt value.
	KindValidation

	// KindStore means the store failed during the snapshot or merge.
	KindStore

	// KindSink means writing the export stream failed.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Error is returned by Export and Import.
type Error struct {
	Op   string // "export" or "import"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err. Errors from the format package
// are classified even when they did not pass through an orchestrator.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, format.ErrUnknownFormat):
		return KindFormat
	case errors.Is(err, format.ErrMalformed):
		return KindParse
	case errors.Is(err, format.ErrInvalidField):
		return KindValidation
	default:
		return KindUnknown
	}
}

// readError classifies an adapter Read failure. Anything the adapter did not
// mark is treated as a broken source.
func readError(err error) *Error {
	kind := classify(err)
	if kind == KindUnknown {
		kind = KindParse
	}
	return &Error{Op: "import", Kind: kind, Err: err}
}
