package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/quill/internal/types"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		typeName string
		wantOK   bool
	}{
		{"string", true},
		{"uuid", true},
		{"decimal", true},
		{"datetime", true},
		{"json", true},
		{"UUID", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			_, ok := types.Lookup(tt.typeName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOK, types.IsPrimitive(tt.typeName))
		})
	}
}

func TestPythonType(t *testing.T) {
	tests := []struct {
		typeName   string
		wantPy     string
		wantModule string
	}{
		{"string", "str", ""},
		{"int", "int", ""},
		{"datetime", "datetime", "datetime"},
		{"uuid", "UUID", "uuid"},
		{"decimal", "Decimal", "decimal"},
		{"json", "dict[str, Any]", "typing"},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			py, imp, err := types.PythonType(tt.typeName)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPy, py)
			if tt.wantModule == "" {
				assert.Nil(t, imp)
				return
			}
			require.NotNil(t, imp)
			assert.Equal(t, tt.wantModule, imp.Module)
		})
	}

	_, _, err := types.PythonType("money")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	names := types.Names()
	assert.Len(t, names, 11)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "bytes")
}

func TestFormatDefault(t *testing.T) {
	tests := []struct {
		typeName string
		value    any
		want     string
		wantErr  bool
	}{
		{"string", "hello", `"hello"`, false},
		{"string", 5, "", true},
		{"text", `say "hi"`, `"say \"hi\""`, false},
		{"int", 42, "42", false},
		{"int", float64(7), "7", false},
		{"int", 1.5, "", true},
		{"int", "42", "", true},
		{"float", 3, "3.0", false},
		{"float", 2.5, "2.5", false},
		{"bool", true, "True", false},
		{"bool", false, "False", false},
		{"bool", "yes", "", true},
		{"datetime", "2024-01-31T12:00:00Z", `datetime.fromisoformat("2024-01-31T12:00:00Z")`, false},
		{"datetime", "yesterday", "", true},
		{"date", "2024-01-31", `date.fromisoformat("2024-01-31")`, false},
		{"date", "31/01/2024", "", true},
		{"uuid", "6F9619FF-8B86-D011-B42D-00C04FC964FF", `UUID("6f9619ff-8b86-d011-b42d-00c04fc964ff")`, false},
		{"uuid", "not-a-uuid", "", true},
		{"decimal", "19.99", `Decimal("19.99")`, false},
		{"decimal", 10, `Decimal("10.0")`, false},
		{"decimal", "ten", "", true},
		{"json", "{}", "", true},
		{"bytes", "abc", "", true},
		{"unknown", "x", "", true},
		{"string", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, err := types.FormatDefault(tt.typeName, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Error(t, types.CheckDefault(tt.typeName, tt.value))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsReserved(t *testing.T) {
	for _, name := range []string{"class", "def", "from", "None", "True", "False", "lambda", "__debug__"} {
		assert.True(t, types.IsReserved(name), name)
	}
	for _, name := range []string{"Class", "none", "match", "type", "userId", "_"} {
		assert.False(t, types.IsReserved(name), name)
	}
}
