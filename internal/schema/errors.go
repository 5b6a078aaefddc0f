package schema

import (
	"bytes"
	"fmt"
)

// Code classifies a ValidationError.
type Code string

const (
	CodeMissingValue        Code = "missing_value"
	CodeInvalidIdentifier   Code = "invalid_identifier"
	CodeReservedIdentifier  Code = "reserved_identifier"
	CodeUnknownKind         Code = "unknown_kind"
	CodeDuplicateName       Code = "duplicate_name"
	CodeDuplicateField      Code = "duplicate_field"
	CodeRequiredWithDefault Code = "required_with_default"
	CodeInvalidType         Code = "invalid_type"
	CodeUnresolvedReference Code = "unresolved_reference"
	CodeAmbiguousReference  Code = "ambiguous_reference"
	CodeInvalidDefault      Code = "invalid_default"
	CodeInvalidAttribute    Code = "invalid_attribute"
	CodePathCollision       Code = "path_collision"
)

// ValidationError represents a spec validation error with context
type ValidationError struct {
	Code       Code
	Entity     string // entity name, or "entities[i]" when the name is missing
	Field      string // field or attribute name (optional)
	Message    string // Error message
	Suggestion string // Helpful suggestion (optional)
	Source     string // spec file (if loaded from disk)
	Line       int    // Line number in the spec file (if available)
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	at := e.Entity
	if e.Field != "" {
		at += "." + e.Field
	}

	var msg string
	switch {
	case e.Source != "" && e.Line > 0:
		msg = fmt.Sprintf("validation error at %s (%s:%d): %s", at, e.Source, e.Line, e.Message)
	case e.Line > 0:
		msg = fmt.Sprintf("validation error at %s (line %d): %s", at, e.Line, e.Message)
	default:
		msg = fmt.Sprintf("validation error at %s: %s", at, e.Message)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error returns all validation errors formatted with clear separation
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("found %d validation errors:\n", len(e)))
	for i, err := range e {
		buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return buf.String()
}

// WithCode returns the errors carrying the given code.
func (e ValidationErrors) WithCode(code Code) ValidationErrors {
	var out ValidationErrors
	for _, err := range e {
		if err.Code == code {
			out = append(out, err)
		}
	}
	return out
}
