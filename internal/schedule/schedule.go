// Package schedule computes the bus timeline a scenario's messages
// emit onto: one event per scheduled transmission, in integer
// nanoseconds of virtual run time, ordered the way a real 1553 bus
// controller would interleave independently-periodic messages.
package schedule

// Event is one scheduled message emission.
type Event struct {
	TimeNs           int64
	Message          string
	RT               int
	SA               int
	DeclarationOrder int // index of the message within the ICD, for stable tie-breaking
}

// Schedule is the full ordered timeline for one run, plus advisory
// frame/utilization figures.
type Schedule struct {
	Events []Event

	// MinorFrameNs/MajorFrameNs are advisory: the GCD and LCM of every
	// message period, reported for operators who want a classical
	// major/minor frame view. Neither value constrains emission times;
	// events are placed at their exact period multiples regardless.
	MinorFrameNs int64
	MajorFrameNs int64

	UtilizationWarnings []string
}
