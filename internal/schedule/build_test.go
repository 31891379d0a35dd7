package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

func twoMessageICD() *icd.ICD {
	return &icd.ICD{Bus: "A", Messages: []icd.Message{
		{Name: "FAST", Rate: 100, RT: 1, SA: 1, WC: 1, TR: codec.BC2RT},
		{Name: "SLOW", Rate: 10, RT: 2, SA: 1, WC: 1, TR: codec.BC2RT},
	}}
}

func TestBuildProducesEventsAtExactPeriods(t *testing.T) {
	sched, err := Build(twoMessageICD(), 0.1, 0, 1)
	require.NoError(t, err)

	var fastTimes []int64
	for _, e := range sched.Events {
		if e.Message == "FAST" {
			fastTimes = append(fastTimes, e.TimeNs)
		}
	}
	require.Len(t, fastTimes, 10)
	assert.Equal(t, int64(0), fastTimes[0])
	assert.Equal(t, int64(10_000_000), fastTimes[1])
}

func TestBuildOrdersEventsByTimeThenTieBreak(t *testing.T) {
	sched, err := Build(twoMessageICD(), 0.01, 0, 1)
	require.NoError(t, err)
	for i := 1; i < len(sched.Events); i++ {
		assert.True(t, sched.Events[i-1].TimeNs <= sched.Events[i].TimeNs)
	}
}

func TestBuildComputesAdvisoryFrames(t *testing.T) {
	sched, err := Build(twoMessageICD(), 0.1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), sched.MinorFrameNs) // gcd(10ms, 100ms)
	assert.Equal(t, int64(100_000_000), sched.MajorFrameNs) // lcm(10ms, 100ms)
}

func TestBuildIsDeterministicAcrossRuns(t *testing.T) {
	a, err := Build(twoMessageICD(), 0.05, 1000, 42)
	require.NoError(t, err)
	b, err := Build(twoMessageICD(), 0.05, 1000, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Events, b.Events)
}

func TestBuildJitterStaysWithinBound(t *testing.T) {
	sched, err := Build(twoMessageICD(), 0.05, 500_000, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, sched.Events)
}

func TestUtilizationWarningForOverbookedMessage(t *testing.T) {
	doc := &icd.ICD{Bus: "A", Messages: []icd.Message{
		{Name: "TOOFAST", Rate: 100000, RT: 1, SA: 1, WC: 32, TR: codec.BC2RT},
	}}
	sched, err := Build(doc, 0.001, 0, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, sched.UtilizationWarnings)
}
