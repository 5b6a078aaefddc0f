package commands

import (
	"errors"
	"fmt"

	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/templates"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("reported")

// ErrUnresolvedConflicts is returned when a run leaves conflicting files
// untouched.
var ErrUnresolvedConflicts = fmt.Errorf("unresolved conflicts: %w", errReported)

// loadAndValidate reads every spec under target and validates the batch,
// printing validation errors when there are any.
func loadAndValidate(target string, set *templates.Set) ([]*schema.ValidatedSpec, error) {
	output.Verbose("Loading specs from: " + target)
	raw, err := schema.LoadDir(target)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no entities found in %s (spec files are named *.quill.yml, *.quill.yaml or *.quill.json)", target)
	}

	specs, err := schema.NewValidator(set).Validate(raw)
	if err != nil {
		var verrs schema.ValidationErrors
		if errors.As(err, &verrs) {
			printValidationErrors(verrs)
			return nil, fmt.Errorf("validation failed: %w", errReported)
		}
		return nil, err
	}
	return specs, nil
}

func printValidationErrors(errs schema.ValidationErrors) {
	noun := "errors"
	if len(errs) == 1 {
		noun = "error"
	}
	output.Error(fmt.Sprintf("Found %d validation %s", len(errs), noun))
	for _, e := range errs {
		output.Step(fmt.Sprintf("[%s] %s", e.Code, e.Error()))
	}
}

// specsTarget picks the positional argument over the configured default.
func (a *app) specsTarget(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Specs
}
