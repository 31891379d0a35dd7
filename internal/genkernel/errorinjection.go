package genkernel

import "math/rand/v2"

// ErrorInjectionSpec is a scenario's opt-in per-message fault
// configuration. With no spec configured for a message, Decide always
// returns a Decision with every flag false, so spec.md §8's properties
// hold unconditionally.
type ErrorInjectionSpec struct {
	ParityErrorPercent     float64
	NoResponsePercent      float64
	LateResponsePercent    float64
	WordCountErrorPercent  float64
	SyncErrorPercent       float64
	BusFailoverTimeS       *float64
}

// Decision is the per-emission fault outcome for one message instance.
type Decision struct {
	ParityError    bool
	NoResponse     bool
	LateResponse   bool
	WordCountError bool
	SyncError      bool
	FailedOver     bool
}

// ErrorInjector draws fault decisions for one message from its own
// PRNG substream, independent of the field generators' substreams so
// enabling fault injection never perturbs generated data values.
type ErrorInjector struct {
	spec       ErrorInjectionSpec
	rng        *rand.Rand
	failedOver bool
}

// NewErrorInjector builds an injector for one message. baseSeed is the
// scenario's seed; message is used to derive a substream distinct from
// every field's own substream.
func NewErrorInjector(baseSeed uint64, message string, spec ErrorInjectionSpec) *ErrorInjector {
	return &ErrorInjector{
		spec: spec,
		rng:  newSubstream(baseSeed, message, "__error_injection__", nil),
	}
}

// Decide draws one fault decision for the emission at timeSeconds. Once
// timeSeconds reaches BusFailoverTimeS (if set) the injector flips to
// the other bus channel and stays flipped for every later emission
// (current_bus is sticky, never switches back) — the other probabilistic
// faults still roll independently on top of that, they are not
// suppressed by failover.
func (e *ErrorInjector) Decide(timeSeconds float64) Decision {
	if e.spec.BusFailoverTimeS != nil && timeSeconds >= *e.spec.BusFailoverTimeS {
		e.failedOver = true
	}
	return Decision{
		ParityError:    e.roll(e.spec.ParityErrorPercent),
		NoResponse:     e.roll(e.spec.NoResponsePercent),
		LateResponse:   e.roll(e.spec.LateResponsePercent),
		WordCountError: e.roll(e.spec.WordCountErrorPercent),
		SyncError:      e.roll(e.spec.SyncErrorPercent),
		FailedOver:     e.failedOver,
	}
}

func (e *ErrorInjector) roll(percent float64) bool {
	if percent <= 0 {
		return false
	}
	return e.rng.Float64()*100 < percent
}
