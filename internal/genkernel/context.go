package genkernel

import "math/rand/v2"

// EvalContext is handed to a generator each time its field is
// evaluated for one scheduled message emission.
type EvalContext struct {
	TimeSeconds  float64
	MessageName  string
	MessageCount int64 // zero-based index of this emission among the message's emissions
	// Values holds fields already computed for the current message's
	// current emission, keyed by field name. Expression generators may
	// read from it; non-expression generators ignore it.
	Values map[string]float64
	kernel *Kernel
	// rng is set transiently by expressionGenerator.Evaluate around a
	// single formula evaluation, backing any random(...) calls it
	// makes. Evaluation is single-threaded within one Kernel, so this
	// is safe to stash on the shared per-message context.
	rng *rand.Rand
}

// CrossMessageValue returns the most recently computed value for
// message.field from a prior emission, or (0, false) if that message
// has not produced a value yet.
func (c *EvalContext) CrossMessageValue(message, field string) (float64, bool) {
	if c.kernel == nil {
		return 0, false
	}
	return c.kernel.lastValue(message, field)
}
