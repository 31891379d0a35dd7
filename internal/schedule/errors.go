package schedule

import "fmt"

// OverlapUnresolvableError reports that jitter pushed an event further
// from its nominal position than the bounded reorder clamp allows.
type OverlapUnresolvableError struct {
	Message string
	Shift   int
	Bound   int
}

func (e *OverlapUnresolvableError) Error() string {
	return fmt.Sprintf("schedule: jitter moved %s by %d positions, exceeding the %d-event reorder bound", e.Message, e.Shift, e.Bound)
}
