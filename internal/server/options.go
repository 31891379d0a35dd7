// Package server is the batch daemon's HTTP surface: /healthz, /runs,
// /runs/{id}, and a synchronous POST /runs that drives the library's
// own Generate entry point against host-filesystem paths named in the
// request body.
package server

import (
	"time"
)

// Options configures server construction.
type Options struct {
	// LedgerPath is the run ledger database the server opens on
	// construction and closes on Close.
	LedgerPath string

	// ReadTimeout/WriteTimeout size the HTTP server that wraps the
	// router this package builds; the daemon's main sets these, the
	// server itself stays transport-agnostic.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions mirrors the teacher's daemon config defaults.
func DefaultOptions() Options {
	return Options{
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}
