package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simonhull/firebird-suite/quill/internal/config"
	"github.com/simonhull/firebird-suite/quill/internal/engine"
	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/templates"
	"github.com/simonhull/firebird-suite/quill/internal/writer"
)

type generateFlags struct {
	output   string
	manifest string
	workers  int
	dryRun   bool
	force    bool
	skip     bool
	diff     bool
}

func generateCmd(a *app) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate [specs]",
		Short: "Generate Python code from spec files",
		Long: `Generate renders every entity under the given path (default: the "specs"
setting) and writes the result below --output.

Existing files are merged: code inside "# quill:begin"/"# quill:end"
regions is kept, everything else is regenerated. A file that was edited
outside its regions is a conflict and is handled by the conflict mode:

  --force   overwrite with the generated content
  --skip    keep the existing file
  --diff    show the diff, then ask (or skip when not on a terminal)

Without a flag the "conflict" setting applies; by default quill asks on a
terminal and skips otherwise. Unresolved conflicts make the command fail.

Examples:
  quill generate
  quill generate specs/users.quill.yml --output src
  quill generate --dry-run --manifest manifest.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output root directory (default: the \"output\" setting)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Write the generation manifest to this file (.json or .yml)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Entities rendered in parallel (default: the \"workers\" setting)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would change without writing")
	cmd.Flags().BoolVar(&f.force, "force", false, "Overwrite conflicting files")
	cmd.Flags().BoolVar(&f.skip, "skip", false, "Keep conflicting files")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Show diffs for conflicting files")
	cmd.MarkFlagsMutuallyExclusive("force", "skip", "diff")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, f *generateFlags) error {
	ctx := cmd.Context()

	root := a.cfg.Output
	if f.output != "" {
		root = f.output
	}
	workers := a.cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	set, err := templates.Load(a.cfg.Templates)
	if err != nil {
		return err
	}
	specs, err := loadAndValidate(a.specsTarget(args), set)
	if err != nil {
		return err
	}

	resolver, err := a.resolver(f)
	if err != nil {
		return err
	}

	output.Verbose(fmt.Sprintf("Generating %d entities into %s (workers=%d, dry-run=%v)", len(specs), root, workers, f.dryRun))
	eng := engine.New(set,
		engine.WithWorkers(workers),
		engine.WithLogger(a.log),
		engine.WithDeterminismCheck(true),
	)
	m, err := eng.Generate(ctx, specs, engine.DirLookup(root))
	if err != nil {
		return err
	}

	res, err := writer.Apply(ctx, m, writer.Options{
		Root:     root,
		DryRun:   f.dryRun,
		Resolver: resolver,
		Logger:   a.log,
	})
	if err != nil {
		return err
	}

	printManifest(m, res)

	if f.manifest != "" {
		if err := m.WriteFile(f.manifest); err != nil {
			return err
		}
		output.Verbose("Manifest written to " + f.manifest)
	}

	if f.dryRun {
		output.Info("Dry run: " + res.Summary())
	} else {
		output.Success(res.Summary())
	}
	if len(res.Skipped) > 0 {
		output.Warn(fmt.Sprintf("%d conflicting files left untouched", len(res.Skipped)))
		output.Step("Re-run with --diff to inspect them or --force to overwrite them")
		return ErrUnresolvedConflicts
	}
	return nil
}

// resolver builds the conflict strategy from the flags, falling back to the
// configured mode.
func (a *app) resolver(f *generateFlags) (*generator.Resolver, error) {
	terminal := term.IsTerminal(int(os.Stdin.Fd()))

	opts := generator.ResolverOptions{Force: f.force, Skip: f.skip, Diff: f.diff}
	if !f.force && !f.skip && !f.diff {
		switch a.cfg.ConflictMode(terminal) {
		case config.ConflictForce:
			opts.Force = true
		case config.ConflictSkip:
			opts.Skip = true
		case config.ConflictDiff:
			opts.Diff = true
		}
	}
	opts.Interactive = terminal && !opts.Force && !opts.Skip
	return generator.NewResolver(opts)
}

func printManifest(m *engine.Manifest, res *writer.Result) {
	skipped := make(map[string]bool, len(res.Skipped))
	for _, e := range res.Skipped {
		skipped[e.Path] = true
	}

	for _, e := range m.Entries {
		action := e.Action.String()
		detail := e.DiffSummary
		if e.Action == generator.ActionConflict && !skipped[e.Path] {
			action = "overwrite"
		}
		if e.Action == generator.ActionUnchanged {
			output.Verbose(fmt.Sprintf("unchanged  %s", e.Path))
			continue
		}
		output.Action(action, e.Path, detail)
		if e.Diagnostic != "" {
			output.Step("    " + e.Diagnostic)
		}
	}
}
