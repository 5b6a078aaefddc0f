package generator

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver_ValidFlags(t *testing.T) {
	tests := []struct {
		name string
		opts ResolverOptions
		want ConflictStrategy
	}{
		{"no flags", ResolverOptions{}, &SkipStrategy{}},
		{"force only", ResolverOptions{Force: true}, &ForceStrategy{}},
		{"skip only", ResolverOptions{Skip: true}, &SkipStrategy{}},
		{"interactive", ResolverOptions{Interactive: true}, &InteractiveStrategy{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, err := NewResolver(tt.opts)
			require.NoError(t, err)
			assert.IsType(t, tt.want, resolver.strategy)
		})
	}
}

func TestNewResolver_InvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		opts ResolverOptions
	}{
		{"force + skip", ResolverOptions{Force: true, Skip: true}},
		{"force + diff", ResolverOptions{Force: true, Diff: true}},
		{"skip + diff", ResolverOptions{Skip: true, Diff: true}},
		{"force + skip + diff", ResolverOptions{Force: true, Skip: true, Diff: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot be combined")
		})
	}
}

func TestForceStrategy_AlwaysOverwrites(t *testing.T) {
	resolution, err := (&ForceStrategy{}).Resolve(Conflict{Path: "a.py"})
	require.NoError(t, err)
	assert.Equal(t, Overwrite, resolution)
}

func TestSkipStrategy_AlwaysSkips(t *testing.T) {
	resolution, err := (&SkipStrategy{}).Resolve(Conflict{Path: "a.py"})
	require.NoError(t, err)
	assert.Equal(t, Skip, resolution)
}

func TestDiffStrategy_PrintsThenDefers(t *testing.T) {
	var out bytes.Buffer
	resolver, err := NewResolver(ResolverOptions{Diff: true, Out: &out})
	require.NoError(t, err)

	resolution, err := resolver.ResolveConflict(Conflict{
		Path:      "models/user.py",
		Existing:  []byte("a\nb\n"),
		Suggested: []byte("a\nc\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, Skip, resolution, "diff without interactive falls back to skip")
	assert.Contains(t, out.String(), "models/user.py (existing)")
	assert.Contains(t, out.String(), "models/user.py (generated)")
}

func TestConflictMenuModel_Navigation(t *testing.T) {
	m := newConflictMenuModel(Conflict{Path: "a.py", Diagnostic: "hand edited"}, nil)
	assert.Contains(t, m.View(), "a.py")
	assert.Contains(t, m.View(), "hand edited")

	next, _ := m.Update(keyMsg("down"))
	next, _ = next.Update(keyMsg("down"))
	final, _ := next.Update(keyMsg("enter"))

	menu := final.(conflictMenuModel)
	require.NotNil(t, menu.selected)
	assert.Equal(t, Overwrite, *menu.selected)
}

func TestConflictMenuModel_Quit(t *testing.T) {
	m := newConflictMenuModel(Conflict{Path: "a.py"}, nil)
	final, _ := m.Update(keyMsg("q"))
	assert.Nil(t, final.(conflictMenuModel).selected)
}

func TestConflictResolution_String(t *testing.T) {
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "overwrite", Overwrite.String())
	assert.Equal(t, "diff", ShowDiff.String())
	assert.Equal(t, "cancel", Cancel.String())
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
