package schedule

import (
	"hash/fnv"
	"math/rand/v2"
)

// applyJitter perturbs every event's time by up to ±jitterNs, then
// re-sorts. If any event ends up more than reorderBound positions
// from where it started, the jitter is considered unresolvable rather
// than silently reordering the bus arbitrarily far from its nominal
// schedule.
func applyJitter(events []Event, jitterNs int64, seed uint64) ([]Event, error) {
	rng := jitterRNG(seed)
	jittered := make([]Event, len(events))
	for i := range events {
		e := events[i]
		delta := int64(rng.IntN(int(2*jitterNs+1))) - jitterNs
		e.TimeNs += delta
		if e.TimeNs < 0 {
			e.TimeNs = 0
		}
		jittered[i] = e
	}

	tagged := make([]indexed, len(jittered))
	for i, e := range jittered {
		tagged[i] = indexed{event: e, original: i}
	}
	sortIndexed(tagged)

	result := make([]Event, len(tagged))
	for newPos, t := range tagged {
		shift := newPos - t.original
		if shift < 0 {
			shift = -shift
		}
		if shift > reorderBound {
			return nil, &OverlapUnresolvableError{Message: t.event.Message, Shift: shift, Bound: reorderBound}
		}
		result[newPos] = t.event
	}
	return result, nil
}

type indexed struct {
	event    Event
	original int
}

func sortIndexed(tagged []indexed) {
	for i := 1; i < len(tagged); i++ {
		for j := i; j > 0 && less(tagged[j].event, tagged[j-1].event); j-- {
			tagged[j], tagged[j-1] = tagged[j-1], tagged[j]
		}
	}
}

func less(a, b Event) bool {
	if a.TimeNs != b.TimeNs {
		return a.TimeNs < b.TimeNs
	}
	if a.RT != b.RT {
		return a.RT < b.RT
	}
	if a.SA != b.SA {
		return a.SA < b.SA
	}
	return a.DeclarationOrder < b.DeclarationOrder
}

func jitterRNG(seed uint64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte("schedule-jitter"))
	s := seed ^ h.Sum64()
	return rand.New(rand.NewPCG(s, s>>1|1))
}
