package rcv

import (
	"errors"
	"fmt"
)

// Error kinds. These are not Go types but sentinel values compared with
// errors.Is; every error the engine itself creates is or wraps one of them
// so callers can classify a failure without string matching. An error
// returned by an InteractiveResolver is passed through unchanged.
var (
	// ErrConfigInvalid is returned when a Config fails validation before the
	// engine starts. The engine never runs a single round in this case.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrCancelled is returned when the cooperative cancel signal fired.
	// No partial results are returned alongside it.
	ErrCancelled = errors.New("tabulation cancelled")

	// ErrInternal marks an invariant violation. The engine raises it when a
	// round has no candidate to eliminate and when a sequential pass produces
	// no winner; it does not check tally sums or past-winner plateaus. It
	// signals a bug in the engine, not bad input.
	ErrInternal = errors.New("internal invariant violation")

	// ErrTieBreakInputRequired is returned by the engine when it needs an
	// interactive tie-break decision and the caller hasn't supplied a
	// resolver. The run that returned it cannot be resumed: the caller can
	// supply an InteractiveResolver and tabulate again, or treat it as fatal.
	ErrTieBreakInputRequired = errors.New("tie-break input required")
)

// kindError attaches one of the sentinel kinds above to a message, the way
// vote/http/error.go's statusCodeError attaches an HTTP status to an error.
type kindError struct {
	kind    error
	msg     string
	wrapped error
}

func (e kindError) Error() string {
	return e.msg
}

func (e kindError) Unwrap() []error {
	if e.wrapped == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.wrapped}
}

// Type returns a short machine-readable name for the error's kind, used by
// HTTP front-ends to pick a status code without importing rcv's sentinels
// directly.
func (e kindError) Type() string {
	switch {
	case errors.Is(e.kind, ErrConfigInvalid):
		return "config_invalid"
	case errors.Is(e.kind, ErrCancelled):
		return "cancelled"
	case errors.Is(e.kind, ErrTieBreakInputRequired):
		return "tie_break_input_required"
	default:
		return "internal"
	}
}

// MessageError builds an error of the given kind with a fixed message.
func MessageError(kind error, msg string) error {
	return kindError{kind: kind, msg: msg}
}

// MessageErrorf builds an error of the given kind with a formatted message.
func MessageErrorf(kind error, format string, a ...any) error {
	return kindError{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// WrapError attaches kind to err, preserving err's message and chain.
func WrapError(kind error, err error) error {
	return kindError{kind: kind, msg: err.Error(), wrapped: err}
}

// configErrorf is a convenience for the frequent ErrConfigInvalid case.
func configErrorf(format string, a ...any) error {
	return MessageErrorf(ErrConfigInvalid, format, a...)
}

// internalErrorf is a convenience for the frequent ErrInternal case. Every
// call site is a bug report: the engine found its own bookkeeping broken.
func internalErrorf(format string, a ...any) error {
	return MessageErrorf(ErrInternal, format, a...)
}
