package extraction

import "fmt"

// ProviderError represents a failure calling the extraction provider or an
// unusable raw response (error taxonomy class a)
type ProviderError struct {
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider failure: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ContractError represents provider output that parsed but failed the
// EmailFacts contract (error taxonomy class b, kept distinct from raw
// provider failures in diagnostics)
type ContractError struct {
	Message string
	Cause   error
}

func (e *ContractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("contract violation: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("contract violation: %s", e.Message)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}
