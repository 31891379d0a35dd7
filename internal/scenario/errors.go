package scenario

import "fmt"

// LoadError wraps one failure found while validating a scenario
// document against its ICD.
type LoadError struct {
	Message string
	Ref     string
}

func (e *LoadError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Ref)
	}
	return e.Message
}

// ValidationErrors aggregates every LoadError found; Load returns this
// rather than stopping at the first invalid binding.
type ValidationErrors struct {
	Errors []*LoadError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}
	return fmt.Sprintf("%d scenario validation errors, first: %s", len(v.Errors), v.Errors[0].Error())
}

func (v *ValidationErrors) Add(message, ref string) {
	v.Errors = append(v.Errors, &LoadError{Message: message, Ref: ref})
}

func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }
