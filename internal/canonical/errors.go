package canonical

import "fmt"

// CanonicalizeError represents a failure to derive canonical text from a body
type CanonicalizeError struct {
	Message string
	Cause   error
}

func (e *CanonicalizeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("canonicalize error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("canonicalize error: %s", e.Message)
}

func (e *CanonicalizeError) Unwrap() error {
	return e.Cause
}
