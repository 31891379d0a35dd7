// Package scenario models the run-level configuration that binds a
// generator to every field of an ICD: duration, seed, and per-field
// generator choices, plus the optional per-message error-injection
// block described in SPEC_FULL.md.
package scenario

import (
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genkernel"
)

// Scenario is a fully validated, load-time-resolved run configuration.
type Scenario struct {
	Name       string
	ICDPath    string
	DurationS  float64
	Seed       uint64
	JitterNs   int64 // max jitter magnitude; 0 disables jitter

	Bindings       map[genkernel.FieldPath]genkernel.Spec
	ErrorInjection map[string]genkernel.ErrorInjectionSpec // keyed by message name
}

// ErrorInjectionFor returns the configured fault spec for a message,
// or the zero value (no faults) if none was configured.
func (s *Scenario) ErrorInjectionFor(message string) genkernel.ErrorInjectionSpec {
	return s.ErrorInjection[message]
}
