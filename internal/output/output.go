package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	actionStyles = map[string]lipgloss.Style{
		"created":   lipgloss.NewStyle().Foreground(lipgloss.Color("green")),
		"updated":   lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")),
		"unchanged": lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		"conflict":  lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true),
		"overwrite": lipgloss.NewStyle().Foreground(lipgloss.Color("magenta")),
	}

	verboseMode bool
	out         io.Writer = os.Stdout
)

// SetVerbose enables or disables verbose output.
// The CLI calls this when --verbose is set.
func SetVerbose(v bool) {
	verboseMode = v
}

// SetWriter redirects all output; nil restores stdout.
func SetWriter(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Success prints a success message with 🔥 emoji and green color.
func Success(msg string) {
	fmt.Fprintln(out, successStyle.Render("🔥 "+msg))
}

// Error prints an error message with ❌ emoji and red color.
func Error(msg string) {
	fmt.Fprintln(out, errorStyle.Render("❌ "+msg))
}

// Warn prints a warning with ⚠️ emoji and yellow color.
// Use this for conditions that need attention but did not fail the run.
func Warn(msg string) {
	fmt.Fprintln(out, warnStyle.Render("⚠️  "+msg))
}

// Info prints an informational message with ℹ️ emoji and cyan color.
func Info(msg string) {
	fmt.Fprintln(out, infoStyle.Render("ℹ️  "+msg))
}

// Step prints an indented step message in gray.
//
// Example:
//
//	output.Step("models/user_profile.py: hand-written code outside regions")
func Step(msg string) {
	fmt.Fprintln(out, stepStyle.Render("   "+msg))
}

// Verbose prints a debug message with 🔍 emoji only if verbose mode is enabled.
func Verbose(msg string) {
	if verboseMode {
		fmt.Fprintln(out, stepStyle.Render("🔍 "+msg))
	}
}

// Action prints one generated file with its action, e.g.
//
//	created    models/user_profile.py  +12 -0
func Action(action, path, detail string) {
	style, ok := actionStyles[action]
	if !ok {
		style = stepStyle
	}
	line := fmt.Sprintf("   %s %s", style.Render(fmt.Sprintf("%-10s", action)), path)
	if detail != "" {
		line += "  " + stepStyle.Render(detail)
	}
	fmt.Fprintln(out, line)
}
