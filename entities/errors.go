package entities

import "fmt"

// ExtractionError reports text that could not be read at all.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError reports a feature value outside its allowed range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// StagingError reports a staging request that cannot be evaluated.
type StagingError struct {
	CancerType string
	Reason     string
	Err        error
}

func (e *StagingError) Error() string {
	msg := "staging failed"
	if e.CancerType != "" {
		msg += " for " + e.CancerType
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StagingError) Unwrap() error { return e.Err }
