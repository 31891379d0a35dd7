package genkernel

import (
	"math"
	"math/rand/v2"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

// Generator produces one float64 value per evaluation. Implementations
// that need randomness hold their own substream; implementations that
// need state (increment, pattern) hold it directly, since evaluation
// is single-threaded within one Kernel.
type Generator interface {
	Evaluate(ctx *EvalContext) (float64, []codec.Warning, error)
}

// New builds the concrete Generator for one field's Spec. rng is nil
// for generators that do not consume randomness.
func New(spec Spec, rng *rand.Rand) (Generator, error) {
	switch spec.Kind {
	case KindConstant:
		return &constantGenerator{value: spec.Value}, nil
	case KindIncrement:
		wrapAt := spec.WrapAt
		return &incrementGenerator{next: spec.Start, step: spec.Step, wrapAt: wrapAt, wrapTo: spec.WrapTo}, nil
	case KindPattern:
		repeat := true
		if spec.Repeat != nil {
			repeat = *spec.Repeat
		}
		return &patternGenerator{values: spec.Values, repeat: repeat}, nil
	case KindRandomUniform:
		return &randomUniformGenerator{min: spec.Min, max: spec.Max, rng: rng}, nil
	case KindRandomNormal:
		return &randomNormalGenerator{mean: spec.Mean, stddev: spec.StdDev, rng: rng}, nil
	case KindRandomMultimodal:
		return &randomMultimodalGenerator{modes: spec.Modes, rng: rng}, nil
	case KindRandomExponential:
		return &randomExponentialGenerator{rate: spec.Rate, rng: rng}, nil
	case KindSine:
		return &waveformGenerator{shape: shapeSine, amplitude: spec.Amplitude, period: spec.Period, phase: spec.Phase, offset: spec.Offset}, nil
	case KindCosine:
		return &waveformGenerator{shape: shapeCosine, amplitude: spec.Amplitude, period: spec.Period, phase: spec.Phase, offset: spec.Offset}, nil
	case KindSquare:
		duty := spec.DutyCycle
		if duty == 0 {
			duty = 0.5
		}
		return &waveformGenerator{shape: shapeSquare, amplitude: spec.Amplitude, period: spec.Period, phase: spec.Phase, offset: spec.Offset, duty: duty}, nil
	case KindSawtooth:
		return &waveformGenerator{shape: shapeSawtooth, amplitude: spec.Amplitude, period: spec.Period, phase: spec.Phase, offset: spec.Offset}, nil
	case KindRamp:
		repeat := false
		if spec.Repeat != nil {
			repeat = *spec.Repeat
		}
		return &rampGenerator{start: spec.Start, end: spec.End, durationS: spec.DurationS, repeat: repeat}, nil
	case KindExpression:
		expr, err := parseExpression(spec.Formula)
		if err != nil {
			return nil, err
		}
		return &expressionGenerator{expr: expr, formula: spec.Formula, rng: rng}, nil
	default:
		return nil, &UndefinedFieldError{Ref: string(spec.Kind)}
	}
}

type constantGenerator struct{ value float64 }

func (g *constantGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	return g.value, nil, nil
}

// incrementGenerator advances by step on every call, wrapping back to
// wrapTo once the value would reach wrapAt. A nil wrapAt never wraps.
type incrementGenerator struct {
	next   float64
	step   float64
	wrapAt *float64
	wrapTo float64
}

func (g *incrementGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	v := g.next
	g.next += g.step
	if g.wrapAt != nil && g.next >= *g.wrapAt {
		g.next = g.wrapTo
	}
	return v, nil, nil
}

// patternGenerator cycles through a fixed sequence of values. When
// repeat is false it holds the final value once the sequence has been
// exhausted once instead of wrapping back to the start.
type patternGenerator struct {
	values []float64
	repeat bool
	index  int
	done   bool
	last   float64
}

func (g *patternGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	if len(g.values) == 0 {
		return 0, []codec.Warning{{Message: "pattern generator has no values"}}, nil
	}
	if g.done {
		return g.last, nil, nil
	}
	v := g.values[g.index%len(g.values)]
	g.index++
	if !g.repeat && g.index >= len(g.values) {
		g.done = true
		g.last = v
	}
	return v, nil, nil
}

type randomUniformGenerator struct {
	min, max float64
	rng      *rand.Rand
}

func (g *randomUniformGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	return g.min + g.rng.Float64()*(g.max-g.min), nil, nil
}

type randomNormalGenerator struct {
	mean, stddev float64
	rng          *rand.Rand
}

func (g *randomNormalGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	return g.mean + normalSample(g.rng)*g.stddev, nil, nil
}

// normalSample draws a standard-normal variate via the Box-Muller
// transform, which math/rand/v2 no longer provides directly.
func normalSample(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// randomMultimodalGenerator picks one mode by weight, then draws a
// normal sample from it.
type randomMultimodalGenerator struct {
	modes []Mode
	rng   *rand.Rand
}

func (g *randomMultimodalGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	if len(g.modes) == 0 {
		return 0, []codec.Warning{{Message: "random_multimodal generator has no modes"}}, nil
	}
	total := 0.0
	for _, m := range g.modes {
		total += m.Weight
	}
	if total <= 0 {
		total = float64(len(g.modes))
	}
	pick := g.rng.Float64() * total
	acc := 0.0
	chosen := g.modes[len(g.modes)-1]
	for _, m := range g.modes {
		acc += m.Weight
		if pick <= acc {
			chosen = m
			break
		}
	}
	return chosen.Mean + normalSample(g.rng)*chosen.StdDev, nil, nil
}

type randomExponentialGenerator struct {
	rate float64
	rng  *rand.Rand
}

func (g *randomExponentialGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	rate := g.rate
	if rate <= 0 {
		rate = 1
	}
	u := g.rng.Float64()
	for u == 0 {
		u = g.rng.Float64()
	}
	return -math.Log(u) / rate, nil, nil
}

type waveShape int

const (
	shapeSine waveShape = iota
	shapeCosine
	shapeSquare
	shapeSawtooth
)

// waveformGenerator is a pure function of scheduled time, so it
// evaluates identically regardless of call order or count.
type waveformGenerator struct {
	shape     waveShape
	amplitude float64
	period    float64
	phase     float64
	offset    float64
	duty      float64
}

func (g *waveformGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	period := g.period
	if period <= 0 {
		period = 1
	}
	phaseFrac := math.Mod(ctx.TimeSeconds/period+g.phase, 1)
	if phaseFrac < 0 {
		phaseFrac++
	}
	switch g.shape {
	case shapeSine:
		return g.offset + g.amplitude*math.Sin(2*math.Pi*phaseFrac), nil, nil
	case shapeCosine:
		return g.offset + g.amplitude*math.Cos(2*math.Pi*phaseFrac), nil, nil
	case shapeSquare:
		if phaseFrac < g.duty {
			return g.offset + g.amplitude, nil, nil
		}
		return g.offset - g.amplitude, nil, nil
	case shapeSawtooth:
		return g.offset + g.amplitude*(2*phaseFrac-1), nil, nil
	default:
		return g.offset, nil, nil
	}
}

// rampGenerator is a pure linear function of scheduled time from start
// to end over durationS. Once the duration elapses it either holds at
// end (repeat false) or wraps back to start and runs again (repeat
// true), so it evaluates identically regardless of call order or count.
type rampGenerator struct {
	start     float64
	end       float64
	durationS float64
	repeat    bool
}

func (g *rampGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	if g.durationS <= 0 {
		return g.start, nil, nil
	}
	t := ctx.TimeSeconds
	switch {
	case g.repeat:
		t = math.Mod(t, g.durationS)
		if t < 0 {
			t += g.durationS
		}
	case t > g.durationS:
		t = g.durationS
	case t < 0:
		t = 0
	}
	frac := t / g.durationS
	return g.start + (g.end-g.start)*frac, nil, nil
}

// expressionGenerator evaluates a parsed formula against the current
// evaluation context. rng backs any random/random_normal/random_int
// calls the formula makes; it is nil when the formula uses none.
type expressionGenerator struct {
	expr    expr
	formula string
	rng     *rand.Rand
}

func (g *expressionGenerator) Evaluate(ctx *EvalContext) (float64, []codec.Warning, error) {
	ctx.rng = g.rng
	v, warnings, err := g.expr.eval(ctx)
	ctx.rng = nil
	if err != nil {
		return 0, warnings, err
	}
	return v, warnings, nil
}
