package generator

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DiffOptions configures how diffs are displayed.
// All fields are optional with sensible defaults.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines shown around changes.
	// Default: 3
	ContextLines int

	// TabWidth is the number of spaces a tab expands to.
	// Default: 4
	TabWidth int

	// ShowLineNums displays old-file line numbers in the left margin.
	ShowLineNums bool

	// Plain disables terminal styling (useful for logs and tests).
	Plain bool
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
	lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true)
)

// hunk is a contiguous block of edits with surrounding context.
type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	edits              []edit
}

// GenerateDiff renders a unified diff between old and newer. It returns an
// empty string when the contents are identical.
func GenerateDiff(oldPath, newPath string, old, newer []byte, opts *DiffOptions) string {
	o := DiffOptions{ContextLines: 3, TabWidth: 4}
	if opts != nil {
		o = *opts
		if o.ContextLines == 0 {
			o.ContextLines = 3
		}
		if o.TabWidth == 0 {
			o.TabWidth = 4
		}
	}

	if isBinary(old) || isBinary(newer) {
		return "Binary files differ\n"
	}
	if bytes.Equal(old, newer) {
		return ""
	}

	oldLines := splitDisplayLines(old)
	newLines := splitDisplayLines(newer)
	if len(oldLines) > maxDiffLines || len(newLines) > maxDiffLines {
		return fmt.Sprintf("Files too large for diff (%d and %d lines)\n", len(oldLines), len(newLines))
	}

	edits := editScript(oldLines, newLines)
	if edits == nil {
		edits = replaceScript(oldLines, newLines)
	}
	hunks := buildHunks(edits, o.ContextLines)
	if len(hunks) == 0 {
		return ""
	}

	style := func(s lipgloss.Style, text string) string {
		if o.Plain {
			return text
		}
		return s.Render(text)
	}

	width := terminalWidth()
	var buf strings.Builder
	buf.WriteString(style(headerStyle, "--- "+oldPath) + "\n")
	buf.WriteString(style(headerStyle, "+++ "+newPath) + "\n")

	for _, h := range hunks {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.oldStart, h.oldCount, h.newStart, h.newCount)
		buf.WriteString(style(hunkStyle, header) + "\n")

		for _, e := range h.edits {
			content := truncateLine(expandTabs(e.text, o.TabWidth), width-10)

			var line string
			switch e.op {
			case opInsert:
				line = style(addedStyle, "+"+content)
			case opDelete:
				line = style(removedStyle, "-"+content)
			default:
				line = " " + content
			}

			if o.ShowLineNums {
				num := "    "
				if e.oldLine > 0 {
					num = fmt.Sprintf("%4d", e.oldLine)
				}
				line = style(lineNumStyle, num) + " " + line
			}
			buf.WriteString(line + "\n")
		}
	}
	return buf.String()
}

// buildHunks groups an edit script into hunks, keeping contextLines of
// unchanged lines around each change and merging hunks whose context overlaps.
func buildHunks(edits []edit, contextLines int) []hunk {
	var changed []int
	for i, e := range edits {
		if e.op != opEqual {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var hunks []hunk
	start := max(changed[0]-contextLines, 0)
	end := min(changed[0]+contextLines, len(edits)-1)
	for _, i := range changed[1:] {
		if i-contextLines <= end+1 {
			end = min(i+contextLines, len(edits)-1)
			continue
		}
		hunks = append(hunks, newHunk(edits[start:end+1]))
		start = i - contextLines
		end = min(i+contextLines, len(edits)-1)
	}
	return append(hunks, newHunk(edits[start:end+1]))
}

func newHunk(edits []edit) hunk {
	h := hunk{edits: edits}
	for _, e := range edits {
		if e.oldLine > 0 && h.oldStart == 0 {
			h.oldStart = e.oldLine
		}
		if e.newLine > 0 && h.newStart == 0 {
			h.newStart = e.newLine
		}
		if e.op != opInsert {
			h.oldCount++
		}
		if e.op != opDelete {
			h.newCount++
		}
	}
	return h
}

// isBinary reports whether data looks binary (contains a NUL byte early on).
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8192)], 0) != -1
}

// splitDisplayLines splits content into lines without terminators.
func splitDisplayLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func expandTabs(s string, tabWidth int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var buf strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			spaces := tabWidth - col%tabWidth
			buf.WriteString(strings.Repeat(" ", spaces))
			col += spaces
			continue
		}
		buf.WriteRune(r)
		col++
	}
	return buf.String()
}

func truncateLine(s string, maxWidth int) string {
	if maxWidth <= 3 {
		maxWidth = 80
	}
	if utf8.RuneCountInString(s) <= maxWidth {
		return s
	}
	return string([]rune(s)[:maxWidth-3]) + "..."
}

// terminalWidth returns the width of stdout, defaulting to 80.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
