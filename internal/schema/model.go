package schema

import (
	"maps"
	"slices"
)

// RawEntity is one entity as deserialized from a spec file, before
// validation.
type RawEntity struct {
	Kind       string         `yaml:"kind" json:"kind" validate:"required"`
	Name       string         `yaml:"name" json:"name" validate:"required,identifier"`
	Fields     []RawField     `yaml:"fields,omitempty" json:"fields,omitempty" validate:"dive"`
	Attributes map[string]any `yaml:"attributes,omitempty" json:"attributes,omitempty"`

	Source string `yaml:"-" json:"-"` // file the entity was loaded from
	Line   int    `yaml:"-" json:"-"` // line of the entity in Source
}

// RawField is one field of a RawEntity. A nil Default means no default.
type RawField struct {
	Name     string `yaml:"name" json:"name" validate:"required,identifier"`
	Type     string `yaml:"type" json:"type" validate:"required"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`

	Line int `yaml:"-" json:"-"`
}

// EntityRef names another entity in the same batch.
type EntityRef struct {
	Kind Kind
	Name string
}

// TypeRef is a resolved field type: a primitive or a reference to another
// entity, optionally a list.
type TypeRef struct {
	Primitive string     // registered primitive name, empty for references
	Ref       *EntityRef // nil for primitives
	List      bool

	// Cyclic is set when Ref's entity refers back to this one, directly or
	// through other entities, so the two generated modules import each other.
	Cyclic bool
}

// IsPrimitive reports whether the type is a primitive (or a list of one).
func (t TypeRef) IsPrimitive() bool {
	return t.Ref == nil
}

func (t TypeRef) String() string {
	name := t.Primitive
	if t.Ref != nil {
		name = t.Ref.Name
	}
	if t.List {
		name += "[]"
	}
	return name
}

// FieldSpec is a validated field.
type FieldSpec struct {
	Name     string
	Type     TypeRef
	Required bool
	Default  any // nil when absent
}

// HasDefault reports whether the field declares a default value.
func (f FieldSpec) HasDefault() bool {
	return f.Default != nil
}

// EntitySpec is one unit to generate.
type EntitySpec struct {
	Kind       Kind
	Name       string
	Fields     []FieldSpec
	Attributes map[string]any
}

// ValidatedSpec is an EntitySpec that passed validation. It can only be built
// by a Validator and is read-only: every accessor returns a copy.
type ValidatedSpec struct {
	spec   EntitySpec
	source string
}

// Kind returns the entity's kind.
func (v *ValidatedSpec) Kind() Kind { return v.spec.Kind }

// Name returns the entity's name.
func (v *ValidatedSpec) Name() string { return v.spec.Name }

// Source returns the file the entity was loaded from, if any.
func (v *ValidatedSpec) Source() string { return v.source }

// Fields returns the fields in declaration order.
func (v *ValidatedSpec) Fields() []FieldSpec {
	return slices.Clone(v.spec.Fields)
}

// Entity returns a copy of the underlying EntitySpec.
func (v *ValidatedSpec) Entity() EntitySpec {
	e := v.spec
	e.Fields = slices.Clone(v.spec.Fields)
	e.Attributes = maps.Clone(v.spec.Attributes)
	return e
}

// HasAttr reports whether the attribute is set, either explicitly or by a
// kind default.
func (v *ValidatedSpec) HasAttr(name string) bool {
	_, ok := v.spec.Attributes[name]
	return ok
}

// StringAttr returns a string attribute.
func (v *ValidatedSpec) StringAttr(name string) (string, bool) {
	s, ok := v.spec.Attributes[name].(string)
	return s, ok
}

// BoolAttr returns a boolean attribute.
func (v *ValidatedSpec) BoolAttr(name string) (bool, bool) {
	b, ok := v.spec.Attributes[name].(bool)
	return b, ok
}

// IntAttr returns an integer attribute.
func (v *ValidatedSpec) IntAttr(name string) (int, bool) {
	n, ok := v.spec.Attributes[name].(int)
	return n, ok
}

// References returns the distinct entities referenced by the fields, in
// first-use order.
func (v *ValidatedSpec) References() []EntityRef {
	var refs []EntityRef
	for _, f := range v.spec.Fields {
		if f.Type.Ref != nil && !slices.Contains(refs, *f.Type.Ref) {
			refs = append(refs, *f.Type.Ref)
		}
	}
	return refs
}
