// Package schemas provides JSON Schema validation for the decisioning
// contracts. The schema documents are embedded at compile time so validation
// does not depend on the working directory.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Contract names the schema a document is validated against.
type Contract string

// The versioned contracts. EmailFacts and DecisionInput are additive-by-default;
// DecisionPlan is closed and rejects anything outside its declared shape.
const (
	ContractEmailFacts    Contract = "email_facts"
	ContractDecisionInput Contract = "decision_input"
	ContractDecisionPlan  Contract = "decision_plan"
)

var (
	compiled   = make(map[Contract]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Contract Contract
	Errors   []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s validation failed:\n", ve.Contract))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Contract Contract
	Message  string
	Cause    error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Contract, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Contract, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// schemaFor compiles and caches the embedded schema document for a contract
func schemaFor(contract Contract) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[contract]; ok {
		return schema, nil
	}

	data, err := schemaFiles.ReadFile(fmt.Sprintf("%s.schema.json", contract))
	if err != nil {
		return nil, &SchemaLoadError{Contract: contract, Message: "schema file not embedded", Cause: err}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Contract: contract, Message: "schema failed to compile", Cause: err}
	}

	compiled[contract] = schema
	return schema, nil
}

// ValidateBytes validates raw JSON against a contract. A validation failure is
// always a representable *ValidationError result, never an uncontrolled fault.
func ValidateBytes(contract Contract, document []byte) error {
	schema, err := schemaFor(contract)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		// Document failed to load (e.g. not JSON at all); report it as a
		// root-level contract violation rather than a schema fault.
		return &ValidationError{
			Contract: contract,
			Errors:   []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Contract: contract,
		Errors:   make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// Validate marshals a Go value and validates it against a contract
func Validate(contract Contract, document any) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", contract, err)
	}
	return ValidateBytes(contract, data)
}
