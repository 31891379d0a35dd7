package genkernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalOnce(t *testing.T, g Generator, timeSeconds float64) float64 {
	t.Helper()
	v, _, err := g.Evaluate(&EvalContext{TimeSeconds: timeSeconds, Values: map[string]float64{}})
	require.NoError(t, err)
	return v
}

func TestConstantGenerator(t *testing.T) {
	g, err := New(Spec{Kind: KindConstant, Value: 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, evalOnce(t, g, 0))
	assert.Equal(t, 7.0, evalOnce(t, g, 100))
}

func TestIncrementGeneratorWraps(t *testing.T) {
	wrapAt := 3.0
	g, err := New(Spec{Kind: KindIncrement, Start: 0, Step: 1, WrapAt: &wrapAt, WrapTo: 0}, nil)
	require.NoError(t, err)
	got := []float64{evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0)}
	assert.Equal(t, []float64{0, 1, 2, 0}, got)
}

func TestPatternGeneratorCycles(t *testing.T) {
	g, err := New(Spec{Kind: KindPattern, Values: []float64{1, 2, 3}}, nil)
	require.NoError(t, err)
	got := []float64{evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0)}
	assert.Equal(t, []float64{1, 2, 3, 1}, got)
}

func TestPatternGeneratorHoldsLastValueWhenRepeatFalse(t *testing.T) {
	no := false
	g, err := New(Spec{Kind: KindPattern, Values: []float64{1, 2, 3}, Repeat: &no}, nil)
	require.NoError(t, err)
	got := []float64{evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0), evalOnce(t, g, 0)}
	assert.Equal(t, []float64{1, 2, 3, 3, 3}, got)
}

func TestSineGeneratorPeriodic(t *testing.T) {
	g, err := New(Spec{Kind: KindSine, Amplitude: 2, Period: 4, Offset: 1}, nil)
	require.NoError(t, err)
	v0 := evalOnce(t, g, 0)
	v4 := evalOnce(t, g, 4)
	assert.InDelta(t, v0, v4, 1e-9)
	v1 := evalOnce(t, g, 1)
	assert.InDelta(t, 3.0, v1, 1e-9) // quarter period: offset + amplitude
}

func TestSquareGeneratorDutyCycle(t *testing.T) {
	g, err := New(Spec{Kind: KindSquare, Amplitude: 1, Period: 1, DutyCycle: 0.25}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, evalOnce(t, g, 0.1))
	assert.Equal(t, -1.0, evalOnce(t, g, 0.5))
}

func TestRampGeneratorLinearOverDuration(t *testing.T) {
	g, err := New(Spec{Kind: KindRamp, Start: 0, End: 100, DurationS: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, evalOnce(t, g, 0))
	assert.Equal(t, 50.0, evalOnce(t, g, 5))
	assert.Equal(t, 100.0, evalOnce(t, g, 10))
}

func TestRampGeneratorHoldsAtEndWhenRepeatFalse(t *testing.T) {
	g, err := New(Spec{Kind: KindRamp, Start: 0, End: 100, DurationS: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, evalOnce(t, g, 15))
	assert.Equal(t, 100.0, evalOnce(t, g, 1000))
}

func TestRampGeneratorRepeatsWhenRepeatTrue(t *testing.T) {
	yes := true
	g, err := New(Spec{Kind: KindRamp, Start: 0, End: 100, DurationS: 10, Repeat: &yes}, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, evalOnce(t, g, 15))
	assert.Equal(t, 0.0, evalOnce(t, g, 20))
}

func TestRandomUniformWithinBounds(t *testing.T) {
	rng := newSubstream(1, "M", "f", nil)
	g, err := New(Spec{Kind: KindRandomUniform, Min: 10, Max: 20}, rng)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		v := evalOnce(t, g, 0)
		assert.GreaterOrEqual(t, v, 10.0)
		assert.Less(t, v, 20.0)
	}
}

func TestRandomUniformDeterministicAcrossRuns(t *testing.T) {
	rng1 := newSubstream(42, "NAV", "alt", nil)
	rng2 := newSubstream(42, "NAV", "alt", nil)
	g1, err := New(Spec{Kind: KindRandomUniform, Min: 0, Max: 1}, rng1)
	require.NoError(t, err)
	g2, err := New(Spec{Kind: KindRandomUniform, Min: 0, Max: 1}, rng2)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, evalOnce(t, g1, 0), evalOnce(t, g2, 0))
	}
}

func TestRandomNormalDistributionShape(t *testing.T) {
	rng := newSubstream(5, "M", "f", nil)
	g, err := New(Spec{Kind: KindRandomNormal, Mean: 50, StdDev: 5}, rng)
	require.NoError(t, err)
	sum := 0.0
	n := 5000
	for i := 0; i < n; i++ {
		sum += evalOnce(t, g, 0)
	}
	mean := sum / float64(n)
	assert.InDelta(t, 50.0, mean, 1.0)
}

func TestRandomExponentialNonNegative(t *testing.T) {
	rng := newSubstream(9, "M", "f", nil)
	g, err := New(Spec{Kind: KindRandomExponential, Rate: 2}, rng)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		v := evalOnce(t, g, 0)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestRandomMultimodalPicksAMode(t *testing.T) {
	rng := newSubstream(3, "M", "f", nil)
	g, err := New(Spec{Kind: KindRandomMultimodal, Modes: []Mode{
		{Weight: 1, Mean: 0, StdDev: 0.01},
		{Weight: 1, Mean: 100, StdDev: 0.01},
	}}, rng)
	require.NoError(t, err)
	sawLow, sawHigh := false, false
	for i := 0; i < 200; i++ {
		v := evalOnce(t, g, 0)
		if math.Abs(v-0) < 1 {
			sawLow = true
		}
		if math.Abs(v-100) < 1 {
			sawHigh = true
		}
	}
	assert.True(t, sawLow)
	assert.True(t, sawHigh)
}
