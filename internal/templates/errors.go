package templates

import (
	"errors"
	"fmt"

	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

var (
	// ErrMissingTemplate means a template set has no template for a kind.
	ErrMissingTemplate = errors.New("no template for kind")
	// ErrEmptyOutput means a template rendered nothing but whitespace.
	ErrEmptyOutput = errors.New("template produced empty output")
	// ErrNonDeterministic means two renders of the same input differed.
	ErrNonDeterministic = errors.New("template output is not deterministic")
	// ErrMalformedMarkers means rendered output contains broken region markers.
	ErrMalformedMarkers = errors.New("template output has malformed region markers")
)

// TemplateError reports an inconsistency in a template set. It is fatal for
// the whole run: it means the generator is broken, not the user's input.
type TemplateError struct {
	Set    string
	Kind   schema.Kind // zero when the error is not tied to a kind
	Entity string      // empty when the error is not tied to an entity
	Err    error
}

func (e *TemplateError) Error() string {
	switch {
	case e.Entity != "":
		return fmt.Sprintf("template error (%s, %s %s): %v", e.Set, e.Kind, e.Entity, e.Err)
	case e.Kind != 0:
		return fmt.Sprintf("template error (%s, %s): %v", e.Set, e.Kind, e.Err)
	default:
		return fmt.Sprintf("template error (%s): %v", e.Set, e.Err)
	}
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
