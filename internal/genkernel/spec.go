// Package genkernel implements the per-field data generators bound to
// an ICD by a scenario: constant and incrementing values, periodic
// waveforms, several random distributions, and a small whitelisted
// expression language for fields derived from others. Evaluation is
// driven entirely by a virtual scheduled time; nothing here reads the
// wall clock.
package genkernel

// Kind names the closed set of generator variants a field may bind to.
type Kind string

const (
	KindConstant         Kind = "constant"
	KindIncrement        Kind = "increment"
	KindPattern          Kind = "pattern"
	KindRandomUniform    Kind = "random_uniform"
	KindRandomNormal     Kind = "random_normal"
	KindRandomMultimodal Kind = "random_multimodal"
	KindRandomExponential Kind = "random_exponential"
	KindSine             Kind = "sine"
	KindCosine           Kind = "cosine"
	KindSquare           Kind = "square"
	KindSawtooth         Kind = "sawtooth"
	KindRamp             Kind = "ramp"
	KindExpression       Kind = "expression"
)

// Mode is one component of a random_multimodal mixture.
type Mode struct {
	Weight float64
	Mean   float64
	StdDev float64
}

// Spec is the scenario-supplied configuration for one field's
// generator. Only the fields relevant to Kind are consulted; the rest
// are ignored, mirroring a tagged union expressed as a flat struct.
type Spec struct {
	Kind Kind

	// constant
	Value float64

	// increment (Start is also the ramp's starting value)
	Start     float64
	Step      float64
	WrapAt    *float64
	WrapTo    float64

	// pattern
	Values []float64
	// Repeat, when non-nil, overrides the per-kind default cycling
	// behavior: for pattern, nil/true wraps via values[index % len]
	// forever, false holds the last value once the sequence is
	// exhausted; for ramp, nil/false holds at End once duration_s
	// elapses, true repeats the ramp every duration_s.
	Repeat *bool

	// ramp
	End       float64
	DurationS float64

	// random_uniform
	Min float64
	Max float64

	// random_normal
	Mean   float64
	StdDev float64

	// random_multimodal
	Modes []Mode

	// random_exponential
	Rate float64

	// sine / cosine / square / sawtooth (periodic)
	Amplitude float64
	Period    float64
	Phase     float64
	Offset    float64
	DutyCycle float64 // square only, default 0.5

	// expression
	Formula string

	// Seed, when non-nil, overrides the scenario-wide seed for this
	// field's PRNG substream. Deterministic by default without it.
	Seed *uint64
}
