// Package http exposes the tabulation engine over HTTP: one endpoint that
// accepts a config and a cast-vote record and returns the full round-by-
// round result.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/civictab/rcvtab/rcv"
)

// Handler is like http.Handler but returns an error, so the error-rendering
// logic lives in one place (resolveError) instead of every handler.
type Handler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc is like http.HandlerFunc but returns an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Server serves the tabulation endpoints on Addr.
type Server struct {
	Addr string
}

// New builds a Server listening on addr (":0" picks a free port, useful for
// tests).
func New(addr string) *Server {
	return &Server{Addr: addr}
}

// Mux builds the registered handler set, for callers that want to embed it
// in their own *http.Server rather than calling ListenAndServe.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/tabulate", resolveError(handleTabulate()))
	mux.Handle("/health", resolveError(handleHealth()))
	return mux
}

// ListenAndServe blocks serving the tabulation endpoints on s.Addr.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.Addr, s.Mux())
}

type tabulateRequest struct {
	Config  rcv.Config   `json:"config"`
	Ballots []rcv.Ballot `json:"ballots"`
}

func handleTabulate() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			return MessageError(ErrBadRequest, "only POST is allowed")
		}

		var req tabulateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return WrapError(ErrBadRequest, fmt.Errorf("decoding request body: %w", err))
		}

		result, err := rcv.Tabulate(req.Config, req.Ballots, rcv.DiscardObserver{}, nil, nil)
		if err != nil {
			return wrapRCVError(err)
		}

		if err := json.NewEncoder(w).Encode(result); err != nil {
			return WrapError(ErrInternal, fmt.Errorf("encoding result: %w", err))
		}
		return nil
	}
}

func handleHealth() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"healthy": true, "service": "rcvtab"}`)
		return nil
	}
}
