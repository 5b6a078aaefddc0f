package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/templates"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [specs]",
		Short: "Check spec files without generating anything",
		Long: `Validate loads every spec file under the given path (default: the
"specs" setting) and reports all problems at once: unknown kinds, bad
identifiers, duplicate names, unresolved references, invalid defaults and
attributes, and entities whose output paths collide.

Example:
  quill validate specs/
  quill validate specs/users.quill.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := templates.Load(a.cfg.Templates)
			if err != nil {
				return err
			}
			specs, err := loadAndValidate(a.specsTarget(args), set)
			if err != nil {
				return err
			}

			for _, spec := range specs {
				_, path, err := set.Resolve(spec)
				if err != nil {
					return err
				}
				output.Verbose(fmt.Sprintf("%s %s → %s", spec.Kind(), spec.Name(), path))
			}
			output.Success(fmt.Sprintf("%d entities valid", len(specs)))
			return nil
		},
	}
}
