package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/templates"
)

func templatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the template set and where each kind is written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := templates.Load(a.cfg.Templates)
			if err != nil {
				return err
			}

			output.Info(fmt.Sprintf("Template set %s", set.ID()))
			for _, t := range set.Templates() {
				output.Step(fmt.Sprintf("%-16s %s/<name>%s  (%s)", t.Kind, t.Dir, t.Ext, t.File))
			}
			output.Verbose(fmt.Sprintf("Available sets: %v", templates.Available()))
			return nil
		},
	}
}
