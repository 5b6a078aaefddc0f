package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const freshDoc = "# header v2\n" +
	"# quill:begin body\n" +
	"pass\n" +
	"# quill:end body\n"

func TestMerge_Created(t *testing.T) {
	m := NewMerger(pySyntax)

	res, err := m.Merge([]byte(freshDoc), nil, false)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, freshDoc, string(res.Content))
	assert.Empty(t, res.Diagnostic)
}

func TestMerge_Unchanged(t *testing.T) {
	m := NewMerger(pySyntax)

	res, err := m.Merge([]byte(freshDoc), []byte(freshDoc), true)
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, res.Action)
	assert.Equal(t, freshDoc, string(res.Content))
}

func TestMerge_UnchangedIgnoresWhitespace(t *testing.T) {
	m := NewMerger(pySyntax)
	existing := "# header v2  \r\n# quill:begin body\r\npass\r\n# quill:end body\r\n\r\n"

	res, err := m.Merge([]byte(freshDoc), []byte(existing), true)
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, res.Action)
	assert.Equal(t, existing, string(res.Content))
}

func TestMerge_UpdatedPreservesRegions(t *testing.T) {
	m := NewMerger(pySyntax)
	existing := "# header v1\n" +
		"# quill:begin body\n" +
		"return compute(x)\n" +
		"# quill:end body\n"

	res, err := m.Merge([]byte(freshDoc), []byte(existing), true)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, "# header v2\n# quill:begin body\nreturn compute(x)\n# quill:end body\n", string(res.Content))

	// merging the result again is a no-op
	again, err := m.Merge([]byte(freshDoc), res.Content, true)
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, again.Action)
}

func TestMerge_Conflicts(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		diagnostic string
	}{
		{
			name:       "hand written file",
			existing:   "print('mine')\n",
			diagnostic: "no managed regions",
		},
		{
			name:       "malformed marker",
			existing:   "# quill:begin body\npass\n",
			diagnostic: "malformed marker",
		},
		{
			name:       "orphaned region",
			existing:   "# quill:begin body\npass\n# quill:end body\n# quill:begin extra\nx = 1\n# quill:end extra\n",
			diagnostic: "extra",
		},
	}

	m := NewMerger(pySyntax)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := m.Merge([]byte(freshDoc), []byte(tt.existing), true)
			require.NoError(t, err)
			assert.Equal(t, ActionConflict, res.Action)
			assert.Equal(t, freshDoc, string(res.Content), "suggested content is the fresh render")
			assert.Contains(t, res.Diagnostic, tt.diagnostic)
		})
	}
}

func TestMerge_BrokenFreshRender(t *testing.T) {
	m := NewMerger(pySyntax)

	_, err := m.Merge([]byte("# quill:begin body\n"), nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendered content")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"\n\n", ""},
		{"a", "a\n"},
		{"a  \nb\t\n\n\n", "a\nb\n"},
		{"a\r\nb\r\n", "a\nb\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(Normalize([]byte(tt.in))), "Normalize(%q)", tt.in)
	}
}

func TestAction_Text(t *testing.T) {
	for _, a := range []Action{ActionCreated, ActionUpdated, ActionUnchanged, ActionConflict} {
		text, err := a.MarshalText()
		require.NoError(t, err)

		var back Action
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, a, back)
	}

	var a Action
	assert.Error(t, a.UnmarshalText([]byte("deleted")))
	assert.Equal(t, "created", ActionCreated.String())
}
