package generator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ConflictResolution is the decision taken for a conflicting file.
type ConflictResolution int

const (
	Skip ConflictResolution = iota
	Overwrite
	ShowDiff
	Cancel
)

func (r ConflictResolution) String() string {
	switch r {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case ShowDiff:
		return "diff"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("ConflictResolution(%d)", int(r))
	}
}

// Conflict describes a file the merge engine refused to reconcile.
type Conflict struct {
	Path       string // path on disk
	Existing   []byte // current content
	Suggested  []byte // freshly generated content
	Diagnostic string // why the merge conflicted
}

// ConflictStrategy decides what to do with a conflicting file.
type ConflictStrategy interface {
	Resolve(c Conflict) (ConflictResolution, error)
}

// ResolverOptions selects a conflict strategy. Force, Skip and Diff are
// mutually exclusive; with none set, Interactive picks the menu over skipping.
type ResolverOptions struct {
	Force       bool
	Skip        bool
	Diff        bool
	Interactive bool
	Out         io.Writer // where diffs are printed (defaults to os.Stdout)
}

// Resolver handles conflict resolution for the file writer.
type Resolver struct {
	strategy ConflictStrategy
}

// NewResolver creates a resolver. Returns an error if Force is combined with
// Skip or Diff.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	if opts.Force && (opts.Skip || opts.Diff) {
		return nil, fmt.Errorf("--force cannot be combined with --skip or --diff")
	}
	if opts.Skip && opts.Diff {
		return nil, fmt.Errorf("--skip cannot be combined with --diff")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Resolver{strategy: selectStrategy(opts)}, nil
}

// NewResolverWithStrategy wraps an explicit strategy.
func NewResolverWithStrategy(s ConflictStrategy) *Resolver {
	return &Resolver{strategy: s}
}

// ResolveConflict returns the decision for c. ShowDiff is never returned; the
// strategy keeps asking until the user makes a final choice.
func (r *Resolver) ResolveConflict(c Conflict) (ConflictResolution, error) {
	return r.strategy.Resolve(c)
}

func selectStrategy(opts ResolverOptions) ConflictStrategy {
	var fallback ConflictStrategy = &SkipStrategy{}
	if opts.Interactive {
		fallback = &InteractiveStrategy{out: opts.Out}
	}

	switch {
	case opts.Force:
		return &ForceStrategy{}
	case opts.Skip:
		return &SkipStrategy{}
	case opts.Diff:
		return &DiffStrategy{out: opts.Out, next: fallback}
	default:
		return fallback
	}
}

// ForceStrategy always overwrites with the generated content.
type ForceStrategy struct{}

func (s *ForceStrategy) Resolve(c Conflict) (ConflictResolution, error) {
	return Overwrite, nil
}

// SkipStrategy always keeps the existing file.
type SkipStrategy struct{}

func (s *SkipStrategy) Resolve(c Conflict) (ConflictResolution, error) {
	return Skip, nil
}

// DiffStrategy prints the diff and then defers to another strategy.
type DiffStrategy struct {
	out  io.Writer
	next ConflictStrategy
}

func (s *DiffStrategy) Resolve(c Conflict) (ConflictResolution, error) {
	fmt.Fprint(s.out, GenerateDiff(c.Path+" (existing)", c.Path+" (generated)", c.Existing, c.Suggested, nil))
	return s.next.Resolve(c)
}

// InteractiveStrategy shows a keyboard-driven menu. Choosing "Show diff"
// opens the diff viewer and then returns to the menu.
type InteractiveStrategy struct {
	out io.Writer
}

func (s *InteractiveStrategy) Resolve(c Conflict) (ConflictResolution, error) {
	info, err := os.Stat(c.Path)
	if err != nil && !os.IsNotExist(err) {
		return Cancel, fmt.Errorf("failed to stat file: %w", err)
	}

	for {
		final, err := tea.NewProgram(newConflictMenuModel(c, info)).Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show menu: %w", err)
		}
		menu := final.(conflictMenuModel)
		if menu.selected == nil {
			return Cancel, nil
		}
		if *menu.selected != ShowDiff {
			return *menu.selected, nil
		}

		diff := GenerateDiff(c.Path+" (existing)", c.Path+" (generated)", c.Existing, c.Suggested, nil)
		if strings.Count(diff, "\n") <= 20 {
			fmt.Fprint(s.out, diff)
			continue
		}
		if _, err := tea.NewProgram(newDiffViewerModel(c.Path, diff), tea.WithAltScreen()).Run(); err != nil {
			return Cancel, fmt.Errorf("failed to show diff: %w", err)
		}
	}
}

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

var menuChoices = []struct {
	label      string
	resolution ConflictResolution
}{
	{"Show diff and decide", ShowDiff},
	{"Skip (keep existing file)", Skip},
	{"Overwrite (discard hand edits, use generated code)", Overwrite},
	{"Cancel (write nothing)", Cancel},
}

type conflictMenuModel struct {
	conflict Conflict
	info     os.FileInfo
	cursor   int
	selected *ConflictResolution
}

func newConflictMenuModel(c Conflict, info os.FileInfo) conflictMenuModel {
	return conflictMenuModel{conflict: c, info: info}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuChoices)-1 {
			m.cursor++
		}
	case "enter":
		choice := menuChoices[m.cursor].resolution
		m.selected = &choice
		return m, tea.Quit
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("⚠️  Conflict: ") + titleStyle.Render(m.conflict.Path) + "\n")
	if m.conflict.Diagnostic != "" {
		b.WriteString(mutedStyle.Render("    "+m.conflict.Diagnostic) + "\n")
	}
	if m.info != nil {
		b.WriteString(mutedStyle.Render("    Last modified: ") + humanize.Time(m.info.ModTime()) + "\n")
		b.WriteString(mutedStyle.Render("    Size: ") + humanize.Bytes(uint64(m.info.Size())) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")

	for i, choice := range menuChoices {
		if i == m.cursor {
			b.WriteString("    " + selectedStyle.Render("> "+choice.label) + "\n")
			continue
		}
		b.WriteString("      " + choice.label + "\n")
	}
	return b.String()
}

type diffViewerModel struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffViewerModel(path, diff string) diffViewerModel {
	return diffViewerModel{path: path, diff: diff}
}

func (m diffViewerModel) Init() tea.Cmd {
	return nil
}

func (m diffViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		const chrome = 4 // header and footer lines
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	rule := strings.Repeat("─", max(0, m.viewport.Width))
	return titleStyle.Render("Diff: "+m.path) + "\n" +
		borderStyle.Render(rule) + "\n" +
		m.viewport.View() + "\n" +
		borderStyle.Render(rule) + "\n" +
		mutedStyle.Render(fmt.Sprintf("[↑/↓/pgup/pgdn] Scroll    [q] Back to menu    %3.f%%", m.viewport.ScrollPercent()*100))
}
