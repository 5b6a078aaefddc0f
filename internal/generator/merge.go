package generator

import (
	"bytes"
	"fmt"
	"strings"
)

// Action is the outcome of merging one output file.
type Action int

const (
	ActionCreated Action = iota
	ActionUpdated
	ActionUnchanged
	ActionConflict
)

var actionNames = map[Action]string{
	ActionCreated:   "created",
	ActionUpdated:   "updated",
	ActionUnchanged: "unchanged",
	ActionConflict:  "conflict",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	name, ok := actionNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	for action, name := range actionNames {
		if name == string(text) {
			*a = action
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", text)
}

// MergeResult is the reconciled content for one file.
type MergeResult struct {
	Content    []byte // final content; the fresh render on conflict
	Action     Action
	Diagnostic string // why the merge conflicted, empty otherwise
}

// Merger reconciles freshly rendered content with an existing file.
type Merger struct {
	syntax MarkerSyntax
}

// NewMerger creates a merger for files using the given marker syntax.
func NewMerger(syntax MarkerSyntax) *Merger {
	return &Merger{syntax: syntax}
}

// Merge reconciles fresh with existing. exists reports whether a file was
// found at the output path; existing is ignored when it is false.
//
// The returned error is reserved for malformed markers in fresh itself, which
// means the template is broken rather than the user's file.
func (m *Merger) Merge(fresh, existing []byte, exists bool) (MergeResult, error) {
	if _, err := ParseRegions(fresh, m.syntax); err != nil {
		return MergeResult{}, fmt.Errorf("rendered content has malformed markers: %w", err)
	}

	if !exists {
		return MergeResult{Content: fresh, Action: ActionCreated}, nil
	}

	preserved, err := ParseRegions(existing, m.syntax)
	if err != nil {
		return conflict(fresh, fmt.Sprintf("existing file has a malformed marker: %v", err)), nil
	}

	if preserved.Len() == 0 {
		if Equivalent(fresh, existing) {
			return MergeResult{Content: existing, Action: ActionUnchanged}, nil
		}
		return conflict(fresh, "existing file has no managed regions and differs from the generated content"), nil
	}

	merged, orphaned, err := Splice(fresh, preserved, m.syntax)
	if err != nil {
		return MergeResult{}, fmt.Errorf("rendered content has malformed markers: %w", err)
	}
	if len(orphaned) > 0 {
		return conflict(fresh, fmt.Sprintf("managed regions no longer produced by the template: %s", strings.Join(orphaned, ", "))), nil
	}

	if Equivalent(merged, existing) {
		return MergeResult{Content: existing, Action: ActionUnchanged}, nil
	}
	return MergeResult{Content: merged, Action: ActionUpdated}, nil
}

func conflict(fresh []byte, diagnostic string) MergeResult {
	return MergeResult{Content: fresh, Action: ActionConflict, Diagnostic: diagnostic}
}

// Equivalent reports whether a and b are equal after normalization.
func Equivalent(a, b []byte) bool {
	return bytes.Equal(Normalize(a), Normalize(b))
}

// Normalize converts CRLF to LF, strips trailing whitespace from every line
// and collapses trailing blank lines into a single final newline.
func Normalize(content []byte) []byte {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
