package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/civictab/rcvtab/rcv"
)

// Error kinds for this package's own bad-request/internal distinction,
// separate from rcv's tabulation-domain kinds (see wrapRCVError for how the
// two are reconciled into one status code).
var (
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

type kindError struct {
	kind    error
	msg     string
	wrapped error
}

func (e kindError) Error() string { return e.msg }

func (e kindError) Unwrap() []error {
	if e.wrapped == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.wrapped}
}

func (e kindError) Type() string {
	if errors.Is(e.kind, ErrBadRequest) {
		return "bad_request"
	}
	return "internal"
}

// MessageError builds an error of the given kind with a fixed message.
func MessageError(kind error, msg string) error {
	return kindError{kind: kind, msg: msg}
}

// WrapError attaches kind to err, preserving its message and chain.
func WrapError(kind error, err error) error {
	return kindError{kind: kind, msg: err.Error(), wrapped: err}
}

// wrapRCVError maps an rcv error kind onto this package's bad-request/
// internal split: config errors are the caller's fault, everything else
// (cancellation, internal invariant violations, unresolved interactive tie
// breaks) is a 500.
func wrapRCVError(err error) error {
	if errors.Is(err, rcv.ErrConfigInvalid) {
		return WrapError(ErrBadRequest, err)
	}
	return WrapError(ErrInternal, err)
}

func resolveError(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler.ServeHTTP(w, r)
		if err == nil {
			return
		}
		writeStatusCode(w, err)
		writeFormattedError(w, err)
	}
}

func writeStatusCode(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	var typed interface{ Type() string }
	if errors.As(err, &typed) && typed.Type() == "bad_request" {
		statusCode = http.StatusBadRequest
	}
	w.WriteHeader(statusCode)
}

func writeFormattedError(w io.Writer, err error) {
	errType := "internal"
	var typed interface {
		error
		Type() string
	}
	if errors.As(err, &typed) {
		errType = typed.Type()
	}

	msg := err.Error()
	if errType == "internal" {
		msg = "internal error"
	}

	out := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{errType, msg}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		fmt.Fprint(w, `{"error":"internal", "message":"failed to encode error"}`)
	}
}
