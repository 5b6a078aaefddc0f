package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/types"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	fieldPathPattern  = regexp.MustCompile(`^fields\[(\d+)\]\.(\w+)$`)
)

// PathResolver maps an entity to its output path. The template set
// implements it; the validator uses it to detect path collisions.
type PathResolver interface {
	OutputPath(kind Kind, name string) (string, error)
}

// Validator checks raw entities and produces ValidatedSpecs.
type Validator struct {
	paths    PathResolver
	validate *validator.Validate
}

// NewValidator creates a validator. paths may be nil, in which case path
// collisions are not checked.
func NewValidator(paths PathResolver) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("schema: register identifier validation: %v", err))
	}
	return &Validator{paths: paths, validate: v}
}

// entry tracks one raw entity through validation.
type entry struct {
	index     int
	raw       *RawEntity
	label     string
	kind      Kind
	kindOK    bool
	nameOK    bool
	duplicate bool
	fields    []FieldSpec
	attrs     map[string]any
	pending   []pendingRef
}

// pendingRef is a field type naming an entity, resolved after the scan.
type pendingRef struct {
	field int
	name  string
}

// collector accumulates errors in discovery order.
type collector struct {
	errs ValidationErrors
}

func (c *collector) add(e *entry, code Code, field string, line int, msg, suggestion string) {
	if line == 0 {
		line = e.raw.Line
	}
	c.errs = append(c.errs, ValidationError{
		Code:       code,
		Entity:     e.label,
		Field:      field,
		Message:    msg,
		Suggestion: suggestion,
		Source:     e.raw.Source,
		Line:       line,
	})
}

// Validate checks every entity and returns the validated specs in input
// order. All problems are collected; the error is a ValidationErrors.
func (v *Validator) Validate(raw []RawEntity) ([]*ValidatedSpec, error) {
	c := &collector{}
	entries := make([]*entry, len(raw))

	for i := range raw {
		e := &entry{index: i, raw: &raw[i], label: raw[i].Name}
		if e.label == "" {
			e.label = fmt.Sprintf("entities[%d]", i)
		}
		entries[i] = e

		badFields := v.checkStructure(c, e)
		e.nameOK = raw[i].Name != "" && identifierPattern.MatchString(raw[i].Name)
		if e.nameOK {
			checkReservedName(c, e)
		}

		if raw[i].Kind == "" {
			continue // reported by checkStructure
		}
		kind, err := ParseKind(raw[i].Kind)
		if err != nil {
			suggestion := "use one of: Class, Handler, ResourceBinding"
			if s := closest(raw[i].Kind, kindNames()); s != "" {
				suggestion = fmt.Sprintf("did you mean %q?", s)
			}
			c.add(e, CodeUnknownKind, "", 0, fmt.Sprintf("unknown kind %q", raw[i].Kind), suggestion)
			continue
		}
		e.kind, e.kindOK = kind, true

		v.checkFields(c, e, badFields)

		attrs, problems := checkAttributes(kind, raw[i].Attributes)
		for _, p := range problems {
			c.add(e, CodeInvalidAttribute, p.attr, 0, p.message, p.suggestion)
		}
		e.attrs = attrs
	}

	checkDuplicates(c, entries)
	resolveReferences(c, entries)
	if v.paths != nil {
		v.checkPaths(c, entries)
	}

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	markCycles(entries)

	specs := make([]*ValidatedSpec, len(entries))
	for i, e := range entries {
		specs[i] = &ValidatedSpec{
			spec: EntitySpec{
				Kind:       e.kind,
				Name:       e.raw.Name,
				Fields:     e.fields,
				Attributes: e.attrs,
			},
			source: e.raw.Source,
		}
	}
	return specs, nil
}

// checkStructure runs the struct-tag checks and returns the indexes of
// fields that failed them.
func (v *Validator) checkStructure(c *collector, e *entry) map[int]bool {
	bad := make(map[int]bool)

	err := v.validate.Struct(e.raw)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return bad
	}

	for _, fe := range verrs {
		_, path, _ := strings.Cut(fe.Namespace(), ".")

		field, line := "", 0
		if m := fieldPathPattern.FindStringSubmatch(path); m != nil {
			j, _ := strconv.Atoi(m[1])
			bad[j] = true
			rf := e.raw.Fields[j]
			field, line = rf.Name, rf.Line
			if field == "" || fe.Field() == "name" {
				field = fmt.Sprintf("fields[%d]", j)
			}
		}

		switch fe.Tag() {
		case "required":
			suggestion := ""
			if fe.Field() == "kind" {
				suggestion = "use one of: Class, Handler, ResourceBinding"
			}
			c.add(e, CodeMissingValue, field, line, fmt.Sprintf("%s is required", fe.Field()), suggestion)
		case "identifier":
			c.add(e, CodeInvalidIdentifier, field, line,
				fmt.Sprintf("%q is not a valid identifier", fe.Value()),
				"use letters, digits and underscores, not starting with a digit")
		default:
			c.add(e, CodeMissingValue, field, line, fe.Error(), "")
		}
	}
	return bad
}

func (v *Validator) checkFields(c *collector, e *entry, badFields map[int]bool) {
	seen := make(map[string]int)

	for j, rf := range e.raw.Fields {
		if badFields[j] {
			continue
		}

		if first, dup := seen[rf.Name]; dup {
			c.add(e, CodeDuplicateField, rf.Name, rf.Line,
				fmt.Sprintf("duplicate field %q (first declared as field %d)", rf.Name, first+1),
				"field names must be unique within an entity")
			continue
		}
		seen[rf.Name] = j

		if types.IsReserved(rf.Name) {
			c.add(e, CodeReservedIdentifier, rf.Name, rf.Line,
				fmt.Sprintf("field name %q is a Python keyword", rf.Name),
				fmt.Sprintf("rename the field, e.g. %s_", rf.Name))
			continue
		}

		if rf.Required && rf.Default != nil {
			c.add(e, CodeRequiredWithDefault, rf.Name, rf.Line,
				"a required field cannot have a default",
				"remove the default or set required: false")
		}

		typeName := strings.TrimSpace(rf.Type)
		list := strings.HasSuffix(typeName, "[]")
		base := strings.TrimSuffix(typeName, "[]")
		if !identifierPattern.MatchString(base) {
			c.add(e, CodeInvalidType, rf.Name, rf.Line,
				fmt.Sprintf("invalid type %q", rf.Type),
				"use a primitive or an entity name, optionally followed by []")
			continue
		}

		spec := FieldSpec{
			Name:     rf.Name,
			Type:     TypeRef{List: list},
			Required: rf.Required,
		}

		if types.IsPrimitive(base) {
			spec.Type.Primitive = base
			if rf.Default != nil {
				if msg := checkDefault(base, list, rf.Default); msg != "" {
					c.add(e, CodeInvalidDefault, rf.Name, rf.Line, msg, "")
				} else {
					spec.Default = rf.Default
				}
			}
		} else {
			if rf.Default != nil {
				c.add(e, CodeInvalidDefault, rf.Name, rf.Line, "fields referencing another entity cannot have a default", "")
			}
			e.pending = append(e.pending, pendingRef{field: len(e.fields), name: base})
		}
		e.fields = append(e.fields, spec)
	}
}

// checkReservedName reports entity names whose generated class or module
// name would be a Python keyword.
func checkReservedName(c *collector, e *entry) {
	name := e.raw.Name
	for _, word := range []string{generator.PascalCase(name), generator.SnakeCase(name)} {
		if types.IsReserved(word) {
			c.add(e, CodeReservedIdentifier, "", 0,
				fmt.Sprintf("name %q renders as the Python keyword %q", name, word),
				"choose a different name")
			return
		}
	}
}

func checkDefault(primitive string, list bool, value any) string {
	if list {
		return "list fields cannot have a default"
	}
	if err := types.CheckDefault(primitive, value); err != nil {
		return fmt.Sprintf("invalid default for %s: %v", primitive, err)
	}
	return ""
}

// checkDuplicates reports entities sharing a name within one kind.
func checkDuplicates(c *collector, entries []*entry) {
	first := make(map[Kind]map[string]*entry)
	for _, e := range entries {
		if !e.kindOK || !e.nameOK {
			continue
		}
		if first[e.kind] == nil {
			first[e.kind] = make(map[string]*entry)
		}
		prev, dup := first[e.kind][e.raw.Name]
		if !dup {
			first[e.kind][e.raw.Name] = e
			continue
		}
		e.duplicate = true
		c.add(e, CodeDuplicateName, "", 0,
			fmt.Sprintf("duplicate %s name %q: declared at %s and %s", e.kind, e.raw.Name, describeEntity(prev), describeEntity(e)),
			"entity names must be unique within a kind")
	}
}

// resolveReferences binds entity-typed fields once every name in the batch
// is known, so forward references work.
func resolveReferences(c *collector, entries []*entry) {
	declared := make(map[string][]Kind)
	broken := make(map[string]bool) // names of entities with an unknown kind
	for _, e := range entries {
		switch {
		case e.kindOK && e.nameOK:
			if !slices.Contains(declared[e.raw.Name], e.kind) {
				declared[e.raw.Name] = append(declared[e.raw.Name], e.kind)
			}
		case e.raw.Name != "":
			broken[e.raw.Name] = true
		}
	}

	var candidates []string
	for name := range declared {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	candidates = append(candidates, types.Names()...)

	for _, e := range entries {
		for _, p := range e.pending {
			field := &e.fields[p.field]
			line := fieldLine(e.raw, field.Name)
			kinds := declared[p.name]

			switch {
			case len(kinds) == 1:
				field.Type.Ref = &EntityRef{Kind: kinds[0], Name: p.name}
			case slices.Contains(kinds, Class):
				field.Type.Ref = &EntityRef{Kind: Class, Name: p.name}
			case len(kinds) > 1:
				names := make([]string, len(kinds))
				for i, k := range kinds {
					names[i] = k.String()
				}
				c.add(e, CodeAmbiguousReference, field.Name, line,
					fmt.Sprintf("type %q names more than one entity (%s)", p.name, strings.Join(names, ", ")),
					"rename one of the entities")
			case broken[p.name]:
				// the referenced entity already failed validation
			default:
				suggestion := "declare the entity in the same batch or use a primitive type"
				if s := closest(p.name, candidates); s != "" {
					suggestion = fmt.Sprintf("did you mean %q?", s)
				}
				c.add(e, CodeUnresolvedReference, field.Name, line,
					fmt.Sprintf("type %q is neither a primitive nor an entity in this batch", p.name),
					suggestion)
			}
		}
	}
}

// checkPaths reports different entities that would be written to the same
// file.
func (v *Validator) checkPaths(c *collector, entries []*entry) {
	owners := make(map[string]*entry)
	for _, e := range entries {
		if !e.kindOK || !e.nameOK || e.duplicate {
			continue
		}
		path, err := v.paths.OutputPath(e.kind, e.raw.Name)
		if err != nil {
			c.add(e, CodePathCollision, "", 0, fmt.Sprintf("cannot resolve output path: %v", err), "")
			continue
		}
		prev, taken := owners[path]
		if !taken {
			owners[path] = e
			continue
		}
		c.add(e, CodePathCollision, "", 0,
			fmt.Sprintf("%s %q (%s) and %s %q (%s) both resolve to %s",
				prev.kind, prev.raw.Name, describeEntity(prev), e.kind, e.raw.Name, describeEntity(e), path),
			"rename one of the entities")
	}
}

func describeEntity(e *entry) string {
	switch {
	case e.raw.Source != "" && e.raw.Line > 0:
		return fmt.Sprintf("%s:%d", e.raw.Source, e.raw.Line)
	case e.raw.Line > 0:
		return fmt.Sprintf("line %d", e.raw.Line)
	default:
		return fmt.Sprintf("entities[%d]", e.index)
	}
}

func fieldLine(raw *RawEntity, name string) int {
	for _, f := range raw.Fields {
		if f.Name == name {
			return f.Line
		}
	}
	return 0
}

func kindNames() []string {
	names := make([]string, 0, 3)
	for _, k := range AllKinds() {
		names = append(names, k.String())
	}
	return names
}
