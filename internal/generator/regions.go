package generator

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	beginToken = "quill:begin"
	endToken   = "quill:end"
)

var regionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// MarkerSyntax describes how region markers are written in a target language.
type MarkerSyntax struct {
	Comment string // line-comment leader, e.g. "#" or "//"
}

// Begin returns the start marker line (without indentation or newline) for id.
func (s MarkerSyntax) Begin(id string) string {
	return s.Comment + " " + beginToken + " " + id
}

// End returns the end marker line (without indentation or newline) for id.
func (s MarkerSyntax) End(id string) string {
	return s.Comment + " " + endToken + " " + id
}

// Region is one managed region found in a document.
type Region struct {
	ID        string
	BeginLine int    // 1-based line of the begin marker
	EndLine   int    // 1-based line of the end marker
	Body      string // lines between the markers, terminators included
}

// RegionMap maps region identifiers to their content, in document order.
type RegionMap struct {
	regions []Region
	index   map[string]int
}

// Len returns the number of regions.
func (m *RegionMap) Len() int {
	return len(m.regions)
}

// Get returns the region with the given identifier.
func (m *RegionMap) Get(id string) (Region, bool) {
	i, ok := m.index[id]
	if !ok {
		return Region{}, false
	}
	return m.regions[i], true
}

// Regions returns the regions in document order.
func (m *RegionMap) Regions() []Region {
	out := make([]Region, len(m.regions))
	copy(out, m.regions)
	return out
}

// MarkerProblem classifies a malformed marker.
type MarkerProblem int

const (
	ProblemUnterminated  MarkerProblem = iota // begin without end
	ProblemOrphanEnd                          // end without begin
	ProblemMismatchedEnd                      // end id differs from the open begin
	ProblemNested                             // begin inside an open region
	ProblemDuplicate                          // id used by an earlier region
	ProblemBadID                              // missing or invalid identifier
)

func (p MarkerProblem) String() string {
	switch p {
	case ProblemUnterminated:
		return "begin marker has no matching end marker"
	case ProblemOrphanEnd:
		return "end marker has no matching begin marker"
	case ProblemMismatchedEnd:
		return "end marker does not match the open region"
	case ProblemNested:
		return "regions cannot be nested"
	case ProblemDuplicate:
		return "duplicate region identifier"
	case ProblemBadID:
		return "marker has a missing or invalid region identifier"
	default:
		return "malformed marker"
	}
}

// MarkerError identifies the offending marker in a malformed document.
type MarkerError struct {
	Line    int    // 1-based line of the offending marker
	ID      string // region identifier as written, if any
	Problem MarkerProblem
	Related int // line of the marker it clashes with, 0 if none
}

func (e *MarkerError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Problem)
	if e.ID != "" {
		msg += fmt.Sprintf(" (region %q)", e.ID)
	}
	if e.Related > 0 {
		msg += fmt.Sprintf(", see line %d", e.Related)
	}
	return msg
}

type markerKind int

const (
	notMarker markerKind = iota
	beginMarker
	endMarker
)

// classify reports whether line is a region marker and returns its id.
// ok is false when the line is a marker with a bad identifier.
func (s MarkerSyntax) classify(line string) (kind markerKind, id string, ok bool) {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, s.Comment) {
		return notMarker, "", true
	}
	fields := strings.Fields(strings.TrimPrefix(text, s.Comment))
	if len(fields) == 0 {
		return notMarker, "", true
	}
	switch fields[0] {
	case beginToken:
		kind = beginMarker
	case endToken:
		kind = endMarker
	default:
		return notMarker, "", true
	}
	if len(fields) != 2 || !regionIDPattern.MatchString(fields[1]) {
		if len(fields) > 1 {
			id = fields[1]
		}
		return kind, id, false
	}
	return kind, fields[1], true
}

// splitLines splits content after each newline, keeping terminators.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ParseRegions scans content for managed regions. Malformed markers produce a
// *MarkerError naming the first offending marker; the parser never guesses.
func ParseRegions(content []byte, syntax MarkerSyntax) (*RegionMap, error) {
	lines := splitLines(string(content))
	m := &RegionMap{index: make(map[string]int)}

	open := -1 // 0-based index of the open begin marker
	openID := ""
	for i, line := range lines {
		kind, id, ok := syntax.classify(line)
		if kind == notMarker {
			continue
		}
		if !ok {
			return nil, &MarkerError{Line: i + 1, ID: id, Problem: ProblemBadID}
		}

		switch kind {
		case beginMarker:
			if open >= 0 {
				return nil, &MarkerError{Line: i + 1, ID: id, Problem: ProblemNested, Related: open + 1}
			}
			if prev, dup := m.index[id]; dup {
				return nil, &MarkerError{Line: i + 1, ID: id, Problem: ProblemDuplicate, Related: m.regions[prev].BeginLine}
			}
			open, openID = i, id
		case endMarker:
			if open < 0 {
				return nil, &MarkerError{Line: i + 1, ID: id, Problem: ProblemOrphanEnd}
			}
			if id != openID {
				return nil, &MarkerError{Line: i + 1, ID: id, Problem: ProblemMismatchedEnd, Related: open + 1}
			}
			m.index[id] = len(m.regions)
			m.regions = append(m.regions, Region{
				ID:        id,
				BeginLine: open + 1,
				EndLine:   i + 1,
				Body:      strings.Join(lines[open+1:i], ""),
			})
			open, openID = -1, ""
		}
	}

	if open >= 0 {
		return nil, &MarkerError{Line: open + 1, ID: openID, Problem: ProblemUnterminated}
	}
	return m, nil
}

// Splice replaces the body of every region in fresh with the body of the
// region carrying the same identifier in preserved. It returns the spliced
// content and the identifiers present in preserved but missing from fresh.
func Splice(fresh []byte, preserved *RegionMap, syntax MarkerSyntax) ([]byte, []string, error) {
	target, err := ParseRegions(fresh, syntax)
	if err != nil {
		return nil, nil, err
	}

	lines := splitLines(string(fresh))
	var b strings.Builder
	b.Grow(len(fresh))

	next := 0 // next 0-based line to copy
	for _, r := range target.regions {
		for ; next < r.BeginLine; next++ {
			b.WriteString(lines[next])
		}
		if old, ok := preserved.Get(r.ID); ok {
			b.WriteString(old.Body)
		} else {
			for i := r.BeginLine; i < r.EndLine-1; i++ {
				b.WriteString(lines[i])
			}
		}
		next = r.EndLine - 1
	}
	for ; next < len(lines); next++ {
		b.WriteString(lines[next])
	}

	var orphaned []string
	for _, r := range preserved.regions {
		if _, ok := target.index[r.ID]; !ok {
			orphaned = append(orphaned, r.ID)
		}
	}
	return []byte(b.String()), orphaned, nil
}
