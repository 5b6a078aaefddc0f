package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
)

// testPaths mirrors the python/v1 directory convention.
type testPaths struct{}

func (testPaths) OutputPath(kind Kind, name string) (string, error) {
	dirs := map[Kind]string{Class: "models", Handler: "handlers", ResourceBinding: "resources"}
	return dirs[kind] + "/" + generator.SnakeCase(name) + ".py", nil
}

func validate(t *testing.T, raw ...RawEntity) ([]*ValidatedSpec, ValidationErrors) {
	t.Helper()
	specs, err := NewValidator(testPaths{}).Validate(raw)
	if err == nil {
		return specs, nil
	}
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	return specs, verrs
}

func codes(errs ValidationErrors) []Code {
	out := make([]Code, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_UserProfileExample(t *testing.T) {
	specs, errs := validate(t, RawEntity{
		Kind:   "Class",
		Name:   "UserProfile",
		Fields: []RawField{{Name: "userId", Type: "string", Required: true}},
	})
	require.Empty(t, errs)
	require.Len(t, specs, 1)

	spec := specs[0]
	assert.Equal(t, Class, spec.Kind())
	assert.Equal(t, "UserProfile", spec.Name())
	require.Len(t, spec.Fields(), 1)
	assert.Equal(t, FieldSpec{Name: "userId", Type: TypeRef{Primitive: "string"}, Required: true}, spec.Fields()[0])

	base, ok := spec.StringAttr("base")
	assert.True(t, ok)
	assert.Equal(t, "pydantic", base)
}

func TestValidate_ForwardReferences(t *testing.T) {
	specs, errs := validate(t,
		RawEntity{
			Kind: "Handler",
			Name: "CreateOrder",
			Fields: []RawField{
				{Name: "order", Type: "Order", Required: true},
				{Name: "items", Type: "OrderItem[]"},
			},
		},
		RawEntity{Kind: "Class", Name: "Order", Fields: []RawField{{Name: "id", Type: "uuid", Required: true}}},
		RawEntity{Kind: "class", Name: "OrderItem", Fields: []RawField{{Name: "sku", Type: "string"}}},
	)
	require.Empty(t, errs)
	require.Len(t, specs, 3)

	fields := specs[0].Fields()
	assert.Equal(t, &EntityRef{Kind: Class, Name: "Order"}, fields[0].Type.Ref)
	assert.False(t, fields[0].Type.List)
	assert.Equal(t, &EntityRef{Kind: Class, Name: "OrderItem"}, fields[1].Type.Ref)
	assert.True(t, fields[1].Type.List)
	assert.Equal(t, "OrderItem[]", fields[1].Type.String())

	assert.Equal(t, []EntityRef{{Kind: Class, Name: "Order"}, {Kind: Class, Name: "OrderItem"}}, specs[0].References())

	// input order is preserved
	assert.Equal(t, []string{"CreateOrder", "Order", "OrderItem"}, []string{specs[0].Name(), specs[1].Name(), specs[2].Name()})
}

func TestValidate_SelfReference(t *testing.T) {
	specs, errs := validate(t, RawEntity{
		Kind:   "Class",
		Name:   "Node",
		Fields: []RawField{{Name: "children", Type: "Node[]"}},
	})
	require.Empty(t, errs)
	assert.Equal(t, &EntityRef{Kind: Class, Name: "Node"}, specs[0].Fields()[0].Type.Ref)
}

func TestValidate_MarksReferenceCycles(t *testing.T) {
	specs, errs := validate(t,
		RawEntity{Kind: "Class", Name: "Author", Fields: []RawField{
			{Name: "name", Type: "string", Required: true},
			{Name: "books", Type: "Book[]"},
		}},
		RawEntity{Kind: "Class", Name: "Book", Fields: []RawField{
			{Name: "author", Type: "Author", Required: true},
			{Name: "sequel", Type: "Book"},
		}},
		RawEntity{Kind: "Handler", Name: "CreateBook", Fields: []RawField{
			{Name: "book", Type: "Book", Required: true},
		}},
	)
	require.Empty(t, errs)

	assert.True(t, specs[0].Fields()[1].Type.Cyclic, "Author.books")
	assert.True(t, specs[1].Fields()[0].Type.Cyclic, "Book.author")
	assert.False(t, specs[1].Fields()[1].Type.Cyclic, "a self reference stays in one module")
	assert.False(t, specs[2].Fields()[0].Type.Cyclic, "nothing refers back to the handler")
}

func TestValidate_LongReferenceCycle(t *testing.T) {
	specs, errs := validate(t,
		RawEntity{Kind: "Class", Name: "A", Fields: []RawField{{Name: "b", Type: "B"}}},
		RawEntity{Kind: "Class", Name: "B", Fields: []RawField{{Name: "c", Type: "C"}, {Name: "d", Type: "D"}}},
		RawEntity{Kind: "Class", Name: "C", Fields: []RawField{{Name: "a", Type: "A"}}},
		RawEntity{Kind: "Class", Name: "D", Fields: []RawField{{Name: "label", Type: "string"}}},
		RawEntity{Kind: "Class", Name: "E", Fields: []RawField{{Name: "a", Type: "A"}}},
	)
	require.Empty(t, errs)

	cyclic := func(i, field int) bool { return specs[i].Fields()[field].Type.Cyclic }
	assert.True(t, cyclic(0, 0))
	assert.True(t, cyclic(1, 0))
	assert.False(t, cyclic(1, 1), "D never leads back to B")
	assert.True(t, cyclic(2, 0))
	assert.False(t, cyclic(4, 0), "nothing in the cycle refers to E")
}

func TestComponents(t *testing.T) {
	comp := components([][]int{
		0: {1},
		1: {2},
		2: {0, 3},
		3: {4},
		4: {3},
		5: {},
	})

	assert.Equal(t, comp[0], comp[1])
	assert.Equal(t, comp[1], comp[2])
	assert.Equal(t, comp[3], comp[4])
	assert.NotEqual(t, comp[0], comp[3])
	assert.NotEqual(t, comp[5], comp[0])
	assert.NotEqual(t, comp[5], comp[3])
}

func TestValidate_CollectsEveryError(t *testing.T) {
	specs, errs := validate(t,
		RawEntity{Kind: "Class", Name: "9lives"},
		RawEntity{Kind: "Clas", Name: "Foo"},
		RawEntity{Kind: "Class", Name: "User", Fields: []RawField{{Name: "address", Type: "Adress"}}},
		RawEntity{Kind: "Class", Name: "User"},
		RawEntity{Kind: "Class", Name: "Address"},
	)
	assert.Nil(t, specs)
	assert.Equal(t, []Code{
		CodeInvalidIdentifier,
		CodeUnknownKind,
		CodeDuplicateName,
		CodeUnresolvedReference,
	}, codes(errs))

	assert.Equal(t, "9lives", errs[0].Entity)
	assert.Equal(t, `did you mean "Class"?`, errs[1].Suggestion)
	assert.Contains(t, errs[2].Message, "entities[2]")
	assert.Contains(t, errs[2].Message, "entities[3]")
	assert.Equal(t, "address", errs[3].Field)
	assert.Equal(t, `did you mean "Address"?`, errs[3].Suggestion)
}

func TestValidate_ReferenceToBrokenEntityIsNotReportedTwice(t *testing.T) {
	_, errs := validate(t,
		RawEntity{Kind: "Struct", Name: "Money"},
		RawEntity{Kind: "Class", Name: "Order", Fields: []RawField{{Name: "total", Type: "Money"}}},
	)
	assert.Equal(t, []Code{CodeUnknownKind}, codes(errs))
}

func TestValidate_MissingValues(t *testing.T) {
	_, errs := validate(t,
		RawEntity{},
		RawEntity{Kind: "Class", Name: "A", Fields: []RawField{{Name: "x"}}},
	)
	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, CodeMissingValue, e.Code)
	}
	assert.Equal(t, "entities[0]", errs[0].Entity)
	assert.Equal(t, "A", errs[2].Entity)
	assert.Equal(t, "x", errs[2].Field)
	assert.Contains(t, errs[2].Message, "type is required")
}

func TestValidate_FieldRules(t *testing.T) {
	_, errs := validate(t, RawEntity{
		Kind: "Class",
		Name: "Item",
		Fields: []RawField{
			{Name: "id", Type: "uuid", Required: true},
			{Name: "id", Type: "string"},
			{Name: "qty", Type: "int", Required: true, Default: 1},
			{Name: "price", Type: "decimal", Default: "abc"},
			{Name: "tags", Type: "string[]", Default: "x"},
			{Name: "owner", Type: "Item", Default: "x"},
			{Name: "meta", Type: "map<string>"},
			{Name: "bad name", Type: "string"},
		},
	})

	assert.ElementsMatch(t, []Code{
		CodeDuplicateField,
		CodeRequiredWithDefault,
		CodeInvalidDefault,
		CodeInvalidDefault,
		CodeInvalidDefault,
		CodeInvalidType,
		CodeInvalidIdentifier,
	}, codes(errs))

	for _, e := range errs.WithCode(CodeInvalidDefault) {
		assert.Contains(t, []string{"price", "tags", "owner"}, e.Field)
	}
}

func TestValidate_ReservedIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		entity RawEntity
		field  string
		msg    string
	}{
		{
			name:   "field named after a keyword",
			entity: RawEntity{Kind: "Class", Name: "Book", Fields: []RawField{{Name: "class", Type: "string", Required: true}}},
			field:  "class",
			msg:    `field name "class" is a Python keyword`,
		},
		{
			name:   "field named None",
			entity: RawEntity{Kind: "Class", Name: "Book", Fields: []RawField{{Name: "None", Type: "string"}}},
			field:  "None",
			msg:    `field name "None" is a Python keyword`,
		},
		{
			name:   "class name becomes None",
			entity: RawEntity{Kind: "Class", Name: "none"},
			msg:    `name "none" renders as the Python keyword "None"`,
		},
		{
			name:   "module name becomes a keyword",
			entity: RawEntity{Kind: "Handler", Name: "Import"},
			msg:    `name "Import" renders as the Python keyword "import"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, errs := validate(t, tt.entity)
			assert.Nil(t, specs)
			require.Len(t, errs, 1)
			assert.Equal(t, CodeReservedIdentifier, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Contains(t, errs[0].Message, tt.msg)
		})
	}
}

func TestValidate_SoftKeywordsAreAllowed(t *testing.T) {
	_, errs := validate(t, RawEntity{
		Kind:   "Class",
		Name:   "Match",
		Fields: []RawField{{Name: "type", Type: "string"}, {Name: "match", Type: "string"}},
	})
	assert.Empty(t, errs)
}

func TestValidate_Defaults(t *testing.T) {
	specs, errs := validate(t, RawEntity{
		Kind: "Class",
		Name: "Settings",
		Fields: []RawField{
			{Name: "retries", Type: "int", Default: 3},
			{Name: "ratio", Type: "float", Default: 0.5},
			{Name: "enabled", Type: "bool", Default: true},
			{Name: "since", Type: "date", Default: "2024-01-31"},
		},
	})
	require.Empty(t, errs)

	fields := specs[0].Fields()
	assert.True(t, fields[0].HasDefault())
	assert.Equal(t, 3, fields[0].Default)
	assert.Equal(t, "2024-01-31", fields[3].Default)
}

func TestValidate_Attributes(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		attrs     map[string]any
		wantField string
		wantMsg   string
	}{
		{"bad base", "Class", map[string]any{"base": "attrs"}, "base", "invalid value"},
		{"table needs pydantic", "Class", map[string]any{"base": "dataclass", "table": "users"}, "table", "only supported with base: pydantic"},
		{"handler attribute on class", "Class", map[string]any{"route": "/x"}, "route", "only valid for Handler"},
		{"typo", "Class", map[string]any{"descripton": "x"}, "descripton", "unknown attribute"},
		{"frozen must be bool", "Class", map[string]any{"frozen": "yes"}, "frozen", "must be a boolean"},
		{"route on sqs", "Handler", map[string]any{"trigger": "sqs", "route": "/x"}, "route", "only valid with trigger: http"},
		{"queue on http", "Handler", map[string]any{"queue": "jobs"}, "queue", "only valid with trigger: sqs"},
		{"schedule missing", "Handler", map[string]any{"trigger": "schedule"}, "schedule", "requires a schedule expression"},
		{"timeout too long", "Handler", map[string]any{"timeout": 1000}, "timeout", "between 1 and 900"},
		{"memory not int", "Handler", map[string]any{"memory": "big"}, "memory", "must be an integer"},
		{"route without slash", "Handler", map[string]any{"route": "users"}, "route", `must start with "/"`},
		{"bad method", "Handler", map[string]any{"method": "FETCH"}, "method", "invalid value"},
		{"bad trigger", "Handler", map[string]any{"trigger": "kafka", "queue": "q"}, "trigger", "invalid value"},
		{"class attribute on handler", "Handler", map[string]any{"frozen": true}, "frozen", "only valid for Class"},
		{"service required", "ResourceBinding", nil, "service", "requires a service"},
		{"bad env", "ResourceBinding", map[string]any{"service": "s3", "env": "BUCKET-NAME"}, "env", "not a valid identifier"},
		{"bad service", "ResourceBinding", map[string]any{"service": "rds"}, "service", "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := validate(t, RawEntity{Kind: tt.kind, Name: "Thing", Attributes: tt.attrs})
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, CodeInvalidAttribute, errs[0].Code)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.Contains(t, errs[0].Message, tt.wantMsg)
		})
	}
}

func TestValidate_AttributeSuggestion(t *testing.T) {
	_, errs := validate(t, RawEntity{Kind: "Class", Name: "A", Attributes: map[string]any{"descripton": "x"}})
	require.Len(t, errs, 1)
	assert.Equal(t, `did you mean "description"?`, errs[0].Suggestion)
}

func TestValidate_AttributeNormalization(t *testing.T) {
	specs, errs := validate(t,
		RawEntity{Kind: "Handler", Name: "ListUsers", Attributes: map[string]any{"method": "get", "timeout": 30}},
		RawEntity{Kind: "Handler", Name: "Ingest", Attributes: map[string]any{"trigger": "sqs", "queue": "ingest"}},
		RawEntity{Kind: "Handler", Name: "Nightly", Attributes: map[string]any{"trigger": "schedule", "schedule": "cron(0 3 * * ? *)"}},
	)
	require.Empty(t, errs)

	method, _ := specs[0].StringAttr("method")
	assert.Equal(t, "GET", method)
	trigger, _ := specs[0].StringAttr("trigger")
	assert.Equal(t, "http", trigger)
	timeout, ok := specs[0].IntAttr("timeout")
	assert.True(t, ok)
	assert.Equal(t, 30, timeout)

	assert.False(t, specs[1].HasAttr("method"), "method default applies to http only")
	queue, _ := specs[1].StringAttr("queue")
	assert.Equal(t, "ingest", queue)
}

func TestValidate_PathCollision(t *testing.T) {
	_, errs := validate(t,
		RawEntity{Kind: "Class", Name: "UserProfile"},
		RawEntity{Kind: "Class", Name: "User_Profile"},
		RawEntity{Kind: "Handler", Name: "UserProfile"},
	)
	require.Len(t, errs, 1)
	assert.Equal(t, CodePathCollision, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"UserProfile"`)
	assert.Contains(t, errs[0].Message, `"User_Profile"`)
	assert.Contains(t, errs[0].Message, "models/user_profile.py")
}

func TestValidate_NoPathResolver(t *testing.T) {
	_, err := NewValidator(nil).Validate([]RawEntity{
		{Kind: "Class", Name: "UserProfile"},
		{Kind: "Class", Name: "User_Profile"},
	})
	assert.NoError(t, err)
}

func TestValidate_References(t *testing.T) {
	t.Run("class wins over other kinds", func(t *testing.T) {
		specs, errs := validate(t,
			RawEntity{Kind: "Handler", Name: "Order"},
			RawEntity{Kind: "Class", Name: "Order"},
			RawEntity{Kind: "Class", Name: "Cart", Fields: []RawField{{Name: "orders", Type: "Order[]"}}},
		)
		require.Empty(t, errs)
		assert.Equal(t, Class, specs[2].Fields()[0].Type.Ref.Kind)
	})

	t.Run("ambiguous without a class", func(t *testing.T) {
		_, errs := validate(t,
			RawEntity{Kind: "Handler", Name: "Thing"},
			RawEntity{Kind: "ResourceBinding", Name: "Thing", Attributes: map[string]any{"service": "s3"}},
			RawEntity{Kind: "Class", Name: "Box", Fields: []RawField{{Name: "t", Type: "Thing"}}},
		)
		assert.Equal(t, []Code{CodeAmbiguousReference}, codes(errs))
	})

	t.Run("binding reference", func(t *testing.T) {
		specs, errs := validate(t,
			RawEntity{Kind: "ResourceBinding", Name: "Uploads", Attributes: map[string]any{"service": "s3"}},
			RawEntity{Kind: "Handler", Name: "Upload", Fields: []RawField{{Name: "bucket", Type: "Uploads"}}},
		)
		require.Empty(t, errs)
		assert.Equal(t, ResourceBinding, specs[1].Fields()[0].Type.Ref.Kind)
	})
}

func TestValidatedSpec_IsReadOnly(t *testing.T) {
	specs, errs := validate(t, RawEntity{
		Kind:       "Class",
		Name:       "A",
		Fields:     []RawField{{Name: "x", Type: "int"}},
		Attributes: map[string]any{"frozen": true},
	})
	require.Empty(t, errs)

	fields := specs[0].Fields()
	fields[0].Name = "changed"
	entity := specs[0].Entity()
	entity.Attributes["frozen"] = false
	entity.Fields[0].Name = "changed"

	assert.Equal(t, "x", specs[0].Fields()[0].Name)
	frozen, _ := specs[0].BoolAttr("frozen")
	assert.True(t, frozen)
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Entity: "User", Field: "email", Message: "boom", Suggestion: "fix it", Source: "users.quill.yml", Line: 12}
	assert.Equal(t, "validation error at User.email (users.quill.yml:12): boom. Suggestion: fix it", e.Error())

	e = ValidationError{Entity: "User", Message: "boom", Line: 3}
	assert.Equal(t, "validation error at User (line 3): boom", e.Error())

	errs := ValidationErrors{{Entity: "A", Message: "one"}, {Entity: "B", Message: "two"}}
	assert.Equal(t, "found 2 validation errors:\n  1. validation error at A: one\n  2. validation error at B: two\n", errs.Error())
	assert.Equal(t, "validation error at A: one", errs[:1].Error())
}

func TestValidate_LineNumbersFromLoader(t *testing.T) {
	raw, err := LoadBytes([]byte("- kind: Class\n  name: A\n  fields:\n    - name: x\n      type: Nope\n"), "a.quill.yml")
	require.NoError(t, err)

	_, errs := validate(t, raw...)
	require.Len(t, errs, 1)
	assert.Equal(t, "a.quill.yml", errs[0].Source)
	assert.Equal(t, 4, errs[0].Line)
}
