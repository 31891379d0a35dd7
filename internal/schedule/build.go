package schedule

import (
	"sort"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

const reorderBound = 8

// wordTimeNs approximates the wire time of one 1553 word at 1 Mbit/s
// (20-bit word including sync and gap), used only for the advisory
// bus-utilization warning, never for event placement.
const wordTimeNs = 20000

// Build computes the full event timeline for every message in doc
// over [0, durationS), applying up to jitterNs of bounded per-event
// jitter when jitterNs > 0. seed drives the jitter PRNG so the same
// scenario always produces the same timeline.
func Build(doc *icd.ICD, durationS float64, jitterNs int64, seed uint64) (*Schedule, error) {
	durationNs := int64(durationS * 1e9)

	var events []Event
	periods := make([]int64, 0, len(doc.Messages))
	for order, msg := range doc.Messages {
		periodNs := int64(1e9 / msg.Rate)
		if periodNs <= 0 {
			periodNs = 1
		}
		periods = append(periods, periodNs)
		for t := int64(0); t < durationNs; t += periodNs {
			events = append(events, Event{
				TimeNs:           t,
				Message:          msg.Name,
				RT:                msg.RT,
				SA:                msg.SA,
				DeclarationOrder: order,
			})
		}
	}

	sortEvents(events)

	if jitterNs > 0 {
		jittered, err := applyJitter(events, jitterNs, seed)
		if err != nil {
			return nil, err
		}
		events = jittered
	}

	sched := &Schedule{
		Events:       events,
		MinorFrameNs: gcdAll(periods),
		MajorFrameNs: lcmAll(periods),
	}
	sched.UtilizationWarnings = utilizationWarnings(doc, periods)
	return sched, nil
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
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
	})
}

func gcdAll(vals []int64) int64 {
	if len(vals) == 0 {
		return 0
	}
	g := vals[0]
	for _, v := range vals[1:] {
		g = gcd(g, v)
	}
	return g
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcmAll(vals []int64) int64 {
	if len(vals) == 0 {
		return 0
	}
	l := vals[0]
	for _, v := range vals[1:] {
		l = lcm(l, v)
	}
	return l
}

func lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// utilizationWarnings flags any message whose approximate wire time
// exceeds its own period, which would mean the bus can never keep up
// with that message's requested rate. This is advisory: it never
// blocks Build.
func utilizationWarnings(doc *icd.ICD, periods []int64) []string {
	var warnings []string
	for i, msg := range doc.Messages {
		txWords := int64(3 + msg.WC) // command + status + data words, approximate
		txNs := txWords * wordTimeNs
		if txNs > periods[i] {
			warnings = append(warnings, msg.Name+": requested rate exceeds approximate bus bandwidth for its word count")
		}
	}
	return warnings
}
