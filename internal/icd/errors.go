package icd

import "fmt"

// LoadError wraps one failure found while validating an ICD document.
// Loaders accumulate every LoadError found rather than stopping at the
// first, per spec.md §4.2.
type LoadError struct {
	Code    string
	Message string
	Ref     string // message or message.field this error concerns
}

func (e *LoadError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Ref)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeUnknownEncoding          = "UnknownEncoding"
	CodeSlotCountMismatch        = "SlotCountMismatch"
	CodeBitfieldOverlap          = "BitfieldOverlap"
	CodeInvalidBitfieldPlacement = "InvalidBitfieldPlacement"
	CodeDuplicateFieldName       = "DuplicateFieldName"
	CodeInvalidMessageAddressing = "InvalidMessageAddressing"
)

// ValidationErrors is the aggregate error type returned by Load when one
// or more LoadErrors were found.
type ValidationErrors struct {
	Errors []*LoadError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}
	return fmt.Sprintf("%d icd validation errors, first: %s", len(v.Errors), v.Errors[0].Error())
}

func (v *ValidationErrors) Add(code, message, ref string) {
	v.Errors = append(v.Errors, &LoadError{Code: code, Message: message, Ref: ref})
}

func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }
