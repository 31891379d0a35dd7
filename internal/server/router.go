package server

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// NewRouter wires HTTP routes to the server's handlers, wrapped in an
// access-logging middleware writing Apache combined-log lines to
// stderr, matching the rest of the daemon's stderr-by-default logging
// convention.
func NewRouter(s *Server) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost)
	r.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	return handlers.CombinedLoggingHandler(os.Stderr, r)
}
