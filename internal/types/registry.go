// Package types is the closed registry of primitive field types quill knows
// how to render, with their Python annotations and imports.
package types

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Import is a single Python "from module import name" requirement.
type Import struct {
	Module string // "datetime"
	Name   string // "datetime"
}

// DefaultRule controls which scalar defaults a type accepts.
type DefaultRule int

const (
	NoDefault       DefaultRule = iota // defaults are rejected
	StringDefault                      // any string
	IntDefault                         // integral number
	FloatDefault                       // any number
	BoolDefault                        // true or false
	DateTimeDefault                    // RFC 3339 string
	DateDefault                        // YYYY-MM-DD string
	UUIDDefault                        // canonical UUID string
	DecimalDefault                     // number or numeric string
)

// TypeInfo contains metadata about a primitive type
type TypeInfo struct {
	PyType  string  // "str", "datetime", "UUID"
	Import  *Import // nil for builtins
	Default DefaultRule
}

// Registry contains all known primitive types
var Registry = map[string]TypeInfo{
	// Builtins (no imports)
	"string": {PyType: "str", Default: StringDefault},
	"text":   {PyType: "str", Default: StringDefault},
	"int":    {PyType: "int", Default: IntDefault},
	"float":  {PyType: "float", Default: FloatDefault},
	"bool":   {PyType: "bool", Default: BoolDefault},
	"bytes":  {PyType: "bytes", Default: NoDefault},

	// Standard library
	"datetime": {
		PyType:  "datetime",
		Import:  &Import{Module: "datetime", Name: "datetime"},
		Default: DateTimeDefault,
	},
	"date": {
		PyType:  "date",
		Import:  &Import{Module: "datetime", Name: "date"},
		Default: DateDefault,
	},
	"uuid": {
		PyType:  "UUID",
		Import:  &Import{Module: "uuid", Name: "UUID"},
		Default: UUIDDefault,
	},
	"decimal": {
		PyType:  "Decimal",
		Import:  &Import{Module: "decimal", Name: "Decimal"},
		Default: DecimalDefault,
	},
	"json": {
		PyType:  "dict[str, Any]",
		Import:  &Import{Module: "typing", Name: "Any"},
		Default: NoDefault,
	},
}

// Lookup returns type info for the given type name
func Lookup(typeName string) (TypeInfo, bool) {
	info, ok := Registry[typeName]
	return info, ok
}

// IsPrimitive reports whether typeName is a registered primitive.
func IsPrimitive(typeName string) bool {
	_, ok := Registry[typeName]
	return ok
}

// PythonType returns the Python annotation and import for a type
func PythonType(typeName string) (string, *Import, error) {
	info, ok := Registry[typeName]
	if !ok {
		return "", nil, fmt.Errorf("unknown type: %s", typeName)
	}
	return info.PyType, info.Import, nil
}

// Names returns all registered type names, sorted.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckDefault reports whether v is an acceptable default for typeName.
func CheckDefault(typeName string, v any) error {
	_, err := FormatDefault(typeName, v)
	return err
}

// FormatDefault renders v as a Python literal for a field of typeName.
//
// Scalars arrive from YAML or JSON, so integers may be int, int64, uint64 or a
// whole float64 depending on the decoder.
func FormatDefault(typeName string, v any) (string, error) {
	info, ok := Registry[typeName]
	if !ok {
		return "", fmt.Errorf("unknown type: %s", typeName)
	}

	switch info.Default {
	case NoDefault:
		return "", fmt.Errorf("type %s does not accept a default", typeName)

	case StringDefault:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected a string, got %s", describe(v))
		}
		return strconv.Quote(s), nil

	case IntDefault:
		n, ok := asInt(v)
		if !ok {
			return "", fmt.Errorf("expected an integer, got %s", describe(v))
		}
		return strconv.FormatInt(n, 10), nil

	case FloatDefault:
		f, ok := asFloat(v)
		if !ok {
			return "", fmt.Errorf("expected a number, got %s", describe(v))
		}
		return formatFloat(f), nil

	case BoolDefault:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("expected true or false, got %s", describe(v))
		}
		if b {
			return "True", nil
		}
		return "False", nil

	case DateTimeDefault:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected an RFC 3339 timestamp string, got %s", describe(v))
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return "", fmt.Errorf("invalid timestamp %q: expected RFC 3339, e.g. 2024-01-31T12:00:00Z", s)
		}
		return fmt.Sprintf("datetime.fromisoformat(%s)", strconv.Quote(s)), nil

	case DateDefault:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected a YYYY-MM-DD string, got %s", describe(v))
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
		return fmt.Sprintf("date.fromisoformat(%s)", strconv.Quote(s)), nil

	case UUIDDefault:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected a UUID string, got %s", describe(v))
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return "", fmt.Errorf("invalid UUID %q", s)
		}
		return fmt.Sprintf("UUID(%s)", strconv.Quote(id.String())), nil

	case DecimalDefault:
		switch x := v.(type) {
		case string:
			if _, err := strconv.ParseFloat(x, 64); err != nil {
				return "", fmt.Errorf("invalid decimal %q", x)
			}
			return fmt.Sprintf("Decimal(%s)", strconv.Quote(x)), nil
		default:
			f, ok := asFloat(v)
			if !ok {
				return "", fmt.Errorf("expected a number, got %s", describe(v))
			}
			return fmt.Sprintf("Decimal(%s)", strconv.Quote(formatFloat(f))), nil
		}
	}
	return "", fmt.Errorf("type %s does not accept a default", typeName)
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// formatFloat always includes a decimal point so Python reads a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f == math.Trunc(f) {
		s += ".0"
	}
	return s
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, uint64:
		return "an integer"
	case float64:
		return "a number"
	case []any:
		return "a list"
	case map[string]any:
		return "a mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
