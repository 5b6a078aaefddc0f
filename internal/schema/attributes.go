package schema

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

type attrType int

const (
	attrString attrType = iota
	attrBool
	attrInt
)

func (t attrType) String() string {
	switch t {
	case attrBool:
		return "a boolean"
	case attrInt:
		return "an integer"
	default:
		return "a string"
	}
}

// attrSpec describes one attribute a kind accepts.
type attrSpec struct {
	typ        attrType
	values     []string // allowed string values; empty means any
	min, max   int      // inclusive bounds for integers
	identifier bool     // string must be a valid identifier
	prefix     string   // string must start with prefix
	upper      bool     // string values are normalized to upper case
}

var commonAttributes = map[string]attrSpec{
	"description": {typ: attrString},
}

var kindAttributes = map[Kind]map[string]attrSpec{
	Class: {
		"base":   {typ: attrString, values: []string{"pydantic", "dataclass"}},
		"frozen": {typ: attrBool},
		"table":  {typ: attrString, identifier: true},
	},
	Handler: {
		"trigger":  {typ: attrString, values: []string{"http", "sqs", "sns", "s3", "schedule"}},
		"method":   {typ: attrString, values: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}, upper: true},
		"route":    {typ: attrString, prefix: "/"},
		"queue":    {typ: attrString},
		"schedule": {typ: attrString},
		"timeout":  {typ: attrInt, min: 1, max: 900},
		"memory":   {typ: attrInt, min: 128, max: 10240},
	},
	ResourceBinding: {
		"service":  {typ: attrString, values: []string{"dynamodb", "s3", "sqs", "sns", "secretsmanager"}},
		"resource": {typ: attrString},
		"env":      {typ: attrString, identifier: true},
	},
}

// attrProblem is one invalid attribute, reported as CodeInvalidAttribute.
type attrProblem struct {
	attr       string
	message    string
	suggestion string
}

// checkAttributes validates attrs against kind's attribute table and returns
// the normalized attributes with kind defaults filled in.
func checkAttributes(kind Kind, attrs map[string]any) (map[string]any, []attrProblem) {
	table := kindAttributes[kind]
	out := make(map[string]any, len(attrs)+2)
	var problems []attrProblem

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := table[name]
		if !ok {
			spec, ok = commonAttributes[name]
		}
		if !ok {
			problems = append(problems, unknownAttribute(kind, name))
			continue
		}

		value, msg := normalizeAttr(spec, attrs[name])
		if msg != "" {
			p := attrProblem{attr: name, message: msg}
			if len(spec.values) > 0 {
				p.suggestion = "use one of: " + strings.Join(spec.values, ", ")
			}
			problems = append(problems, p)
			continue
		}
		out[name] = value
	}

	switch kind {
	case Class:
		problems = append(problems, classDefaults(out)...)
	case Handler:
		// an invalid trigger was already reported; combinations are meaningless
		if _, given := attrs["trigger"]; given {
			if _, valid := out["trigger"]; !valid {
				break
			}
		}
		problems = append(problems, handlerDefaults(out)...)
	case ResourceBinding:
		if _, ok := out["service"]; !ok && !slices.Contains(names, "service") {
			problems = append(problems, attrProblem{
				attr:       "service",
				message:    "ResourceBinding requires a service",
				suggestion: "use one of: " + strings.Join(kindAttributes[ResourceBinding]["service"].values, ", "),
			})
		}
	}
	return out, problems
}

func unknownAttribute(kind Kind, name string) attrProblem {
	for _, other := range AllKinds() {
		if _, ok := kindAttributes[other][name]; ok && other != kind {
			return attrProblem{
				attr:    name,
				message: fmt.Sprintf("attribute %q is only valid for %s, not %s", name, other, kind),
			}
		}
	}

	valid := make([]string, 0, len(kindAttributes[kind])+len(commonAttributes))
	for n := range kindAttributes[kind] {
		valid = append(valid, n)
	}
	for n := range commonAttributes {
		valid = append(valid, n)
	}
	sort.Strings(valid)

	p := attrProblem{attr: name, message: fmt.Sprintf("unknown attribute %q for %s", name, kind)}
	if s := closest(name, valid); s != "" {
		p.suggestion = fmt.Sprintf("did you mean %q?", s)
	} else {
		p.suggestion = "valid attributes: " + strings.Join(valid, ", ")
	}
	return p
}

func normalizeAttr(spec attrSpec, v any) (any, string) {
	switch spec.typ {
	case attrBool:
		b, ok := v.(bool)
		if !ok {
			return nil, "must be a boolean"
		}
		return b, ""

	case attrInt:
		var n int
		switch x := v.(type) {
		case int:
			n = x
		case int64:
			n = int(x)
		case float64:
			if x != math.Trunc(x) {
				return nil, "must be an integer"
			}
			n = int(x)
		default:
			return nil, "must be an integer"
		}
		if n < spec.min || n > spec.max {
			return nil, fmt.Sprintf("must be between %d and %d, got %d", spec.min, spec.max, n)
		}
		return n, ""

	default:
		s, ok := v.(string)
		if !ok {
			return nil, "must be a string"
		}
		if spec.upper {
			s = strings.ToUpper(s)
		}
		if len(spec.values) > 0 && !slices.Contains(spec.values, s) {
			return nil, fmt.Sprintf("invalid value %q", s)
		}
		if spec.identifier && !identifierPattern.MatchString(s) {
			return nil, fmt.Sprintf("%q is not a valid identifier", s)
		}
		if spec.prefix != "" && !strings.HasPrefix(s, spec.prefix) {
			return nil, fmt.Sprintf("must start with %q", spec.prefix)
		}
		return s, ""
	}
}

func classDefaults(attrs map[string]any) []attrProblem {
	if _, ok := attrs["base"]; !ok {
		attrs["base"] = "pydantic"
	}
	if _, ok := attrs["table"]; ok && attrs["base"] != "pydantic" {
		return []attrProblem{{attr: "table", message: "table is only supported with base: pydantic"}}
	}
	return nil
}

// triggerOnly lists attributes restricted to a single trigger.
var triggerOnly = map[string]string{
	"method":   "http",
	"route":    "http",
	"queue":    "sqs",
	"schedule": "schedule",
}

func handlerDefaults(attrs map[string]any) []attrProblem {
	if _, ok := attrs["trigger"]; !ok {
		attrs["trigger"] = "http"
	}
	trigger := attrs["trigger"].(string)

	var problems []attrProblem
	for _, name := range []string{"method", "route", "queue", "schedule"} {
		if _, ok := attrs[name]; ok && triggerOnly[name] != trigger {
			problems = append(problems, attrProblem{
				attr:    name,
				message: fmt.Sprintf("%s is only valid with trigger: %s (trigger is %s)", name, triggerOnly[name], trigger),
			})
		}
	}

	switch trigger {
	case "http":
		if _, ok := attrs["method"]; !ok {
			attrs["method"] = "POST"
		}
	case "schedule":
		if _, ok := attrs["schedule"]; !ok {
			problems = append(problems, attrProblem{
				attr:       "schedule",
				message:    "trigger: schedule requires a schedule expression",
				suggestion: `e.g. schedule: "rate(5 minutes)"`,
			})
		}
	}
	return problems
}
