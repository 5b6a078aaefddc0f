package types

import "slices"

// reserved lists the Python 3 keywords plus __debug__, none of which can be
// bound as a name.
var reserved = []string{
	"False", "None", "True", "__debug__",
	"and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del",
	"elif", "else", "except", "finally", "for",
	"from", "global", "if", "import", "in",
	"is", "lambda", "nonlocal", "not", "or",
	"pass", "raise", "return", "try", "while",
	"with", "yield",
}

// IsReserved reports whether name cannot be used as a Python identifier.
// Soft keywords such as match and type are valid names and are not reserved.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}
