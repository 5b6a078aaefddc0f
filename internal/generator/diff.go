package generator

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// maxDiffLines bounds the inputs of a diff; larger inputs fall back to a
	// line multiset comparison when computing stats.
	maxDiffLines = 10000

	// maxEditDistance bounds the Myers search. The trace grows with the
	// square of the distance, so inputs that differ by more fall back too.
	maxEditDistance = 1024
)

type editOp int

const (
	opEqual editOp = iota
	opInsert
	opDelete
)

// edit is one line of an edit script.
type edit struct {
	op      editOp
	oldLine int // 1-based line in the old text, 0 for inserts
	newLine int // 1-based line in the new text, 0 for deletes
	text    string
}

// editScript computes the shortest edit script turning a into b, or nil when
// it needs more than maxEditDistance edits.
// Based on "An O(ND) Difference Algorithm and Its Variations" (Myers, 1986).
func editScript(a, b []string) []edit {
	n, m := len(a), len(b)
	maxD := min(n+m, maxEditDistance)
	offset := maxD + 1
	v := make([]int, 2*maxD+3)
	// trace[d] is v before step d, limited to diagonals -d-1..d+1.
	trace := make([][]int, 0, 16)

	for d := 0; d <= maxD; d++ {
		trace = append(trace, slices.Clone(v[offset-d-1:offset+d+2]))

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x

			if x >= n && y >= m {
				return backtrack(trace, a, b)
			}
		}
	}
	return nil
}

func backtrack(trace [][]int, a, b []string) []edit {
	x, y := len(a), len(b)
	out := make([]edit, 0, max(x, y))

	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		at := d + 1 // index of diagonal 0 in v
		k := x - y

		prevK := k - 1
		if k == -d || (k != d && v[at+k-1] < v[at+k+1]) {
			prevK = k + 1
		}
		prevX := v[at+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			out = append(out, edit{op: opEqual, oldLine: x + 1, newLine: y + 1, text: a[x]})
		}
		if d == 0 {
			break
		}
		if x == prevX {
			y--
			out = append(out, edit{op: opInsert, newLine: y + 1, text: b[y]})
		} else {
			x--
			out = append(out, edit{op: opDelete, oldLine: x + 1, text: a[x]})
		}
	}

	slices.Reverse(out)
	return out
}

// replaceScript is the edit script used when the Myers search gives up: the
// common prefix and suffix are kept and everything between is replaced.
func replaceScript(a, b []string) []edit {
	pre := 0
	for pre < len(a) && pre < len(b) && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < len(a)-pre && suf < len(b)-pre && a[len(a)-1-suf] == b[len(b)-1-suf] {
		suf++
	}

	out := make([]edit, 0, len(a)+len(b)-pre-suf)
	for i := range pre {
		out = append(out, edit{op: opEqual, oldLine: i + 1, newLine: i + 1, text: a[i]})
	}
	for i := pre; i < len(a)-suf; i++ {
		out = append(out, edit{op: opDelete, oldLine: i + 1, text: a[i]})
	}
	for j := pre; j < len(b)-suf; j++ {
		out = append(out, edit{op: opInsert, newLine: j + 1, text: b[j]})
	}
	for i := range suf {
		x, y := len(a)-suf+i, len(b)-suf+i
		out = append(out, edit{op: opEqual, oldLine: x + 1, newLine: y + 1, text: a[x]})
	}
	return out
}

// DiffStat counts added and removed lines between two versions of a file.
type DiffStat struct {
	Added   int
	Removed int
}

// IsZero reports whether the two versions had no line differences.
func (s DiffStat) IsZero() bool {
	return s.Added == 0 && s.Removed == 0
}

func (s DiffStat) String() string {
	if s.IsZero() {
		return "no changes"
	}
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}

// Stat computes line-level change counts between old and newer.
func Stat(old, newer []byte) DiffStat {
	a := strings.Split(strings.TrimSuffix(string(old), "\n"), "\n")
	b := strings.Split(strings.TrimSuffix(string(newer), "\n"), "\n")
	if len(old) == 0 {
		a = nil
	}
	if len(newer) == 0 {
		b = nil
	}

	if len(a) > maxDiffLines || len(b) > maxDiffLines {
		return multisetStat(a, b)
	}

	script := editScript(a, b)
	if script == nil {
		return multisetStat(a, b)
	}

	var stat DiffStat
	for _, e := range script {
		switch e.op {
		case opInsert:
			stat.Added++
		case opDelete:
			stat.Removed++
		}
	}
	return stat
}

// multisetStat approximates a diff by comparing line occurrence counts.
func multisetStat(a, b []string) DiffStat {
	counts := make(map[string]int, len(a))
	for _, line := range a {
		counts[line]++
	}
	var stat DiffStat
	for _, line := range b {
		if counts[line] > 0 {
			counts[line]--
			continue
		}
		stat.Added++
	}
	for _, c := range counts {
		stat.Removed += c
	}
	return stat
}
