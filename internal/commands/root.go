// Package commands implements the quill command line.
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/quill/internal/config"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/output"
)

// Version is the quill release.
const Version = "0.1.0"

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log logger.Logger
}

// RootCmd creates the root command with every subcommand attached.
func RootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "quill",
		Short: "Generate Python serverless code from entity specs",
		Long: `quill turns declarative entity specs (*.quill.yml) into Python source:
pydantic models, Lambda handlers and cloud resource bindings.

Regenerating is safe: code inside "# quill:begin"/"# quill:end" regions is
preserved, and files edited outside those regions are reported as conflicts
instead of being overwritten.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (default ./"+config.FileName+")")

	cmd.AddCommand(generateCmd(a))
	cmd.AddCommand(validateCmd(a))
	cmd.AddCommand(templatesCmd(a))

	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	verbose := a.verbose || cfg.Verbose
	output.SetVerbose(verbose)

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = logger.LevelDebug
	}
	a.log = logger.NewLogger(level, os.Stderr)

	if cfg.File != "" {
		output.Verbose("Using configuration: " + cfg.File)
	}
	return nil
}

// Execute runs the CLI. Errors are printed here; the caller only sets the
// exit status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := RootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		output.Error(err.Error())
	}
	return err
}
