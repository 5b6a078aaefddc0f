package templates

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/types"
)

// Render produces the file content for spec with tmpl. It is pure: the same
// spec and template always yield byte-identical output, with no clock,
// environment or map-order input.
func Render(spec *schema.ValidatedSpec, tmpl *Template) ([]byte, error) {
	fail := func(err error) error {
		return &TemplateError{Set: tmpl.set.id, Kind: spec.Kind(), Entity: spec.Name(), Err: err}
	}
	if tmpl.Kind != spec.Kind() {
		return nil, fail(fmt.Errorf("template %s cannot render a %s", tmpl.File, spec.Kind()))
	}

	view, err := tmpl.set.buildView(spec)
	if err != nil {
		return nil, fail(err)
	}

	var buf bytes.Buffer
	if err := tmpl.tmpl.Execute(&buf, view); err != nil {
		return nil, fail(fmt.Errorf("failed to execute template: %w", err))
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil, fail(ErrEmptyOutput)
	}
	return buf.Bytes(), nil
}

// Render resolves the template for spec and renders it.
func (s *Set) Render(spec *schema.ValidatedSpec) ([]byte, error) {
	tmpl, err := s.Template(spec.Kind())
	if err != nil {
		return nil, err
	}
	return Render(spec, tmpl)
}

// entityView is the data every template executes against.
type entityView struct {
	Header      string
	Name        string
	ClassName   string
	Description string
	Fields      []fieldView
	Imports     []string // rendered import lines, sorted
	Deferred    string   // trailing imports of modules that import this one back

	// Class
	Dataclass bool
	Frozen    bool
	Table     string

	// Handler
	Trigger     string
	Method      string
	Route       string
	Queue       string
	Schedule    string
	Timeout     int
	Memory      int
	SuccessCode int
	RecordBody  string // Python expression extracting one record's payload

	// ResourceBinding
	Service   string
	Resource  string
	EnvVar    string
	ItemClass string // pydantic item model, empty without fields

	PayloadClass string // handler request model
}

type fieldView struct {
	Name        string
	Declaration string // "userId: str", "nickname: Optional[str] = None"
}

// Empty reports whether the class body would have no statements.
func (v entityView) Empty() bool {
	return len(v.Fields) == 0 && v.Description == "" && v.Table == "" && !(v.Frozen && !v.Dataclass)
}

// Batch reports whether the handler receives a list of records.
func (v entityView) Batch() bool {
	return v.RecordBody != ""
}

func (s *Set) buildView(spec *schema.ValidatedSpec) (entityView, error) {
	view := entityView{
		Header:    fmt.Sprintf("%s Code generated by quill (%s). Edit only inside quill:begin/quill:end regions.", s.syntax.Comment, s.id),
		Name:      spec.Name(),
		ClassName: generator.PascalCase(spec.Name()),
	}
	view.Description, _ = spec.StringAttr("description")

	imports, deferred := newImportSet(), newImportSet()
	for _, f := range spec.Fields() {
		target := imports
		if f.Type.Cyclic {
			target = deferred
		}
		fv, optional, err := s.fieldDeclaration(spec, f, imports, target)
		if err != nil {
			return entityView{}, err
		}
		if optional {
			imports.from("typing", "Optional")
		}
		view.Fields = append(view.Fields, fv)
	}

	switch spec.Kind() {
	case schema.Class:
		base, _ := spec.StringAttr("base")
		view.Dataclass = base == "dataclass"
		view.Frozen, _ = spec.BoolAttr("frozen")
		view.Table, _ = spec.StringAttr("table")
		if view.Dataclass {
			imports.from("dataclasses", "dataclass")
		} else {
			imports.from("pydantic", "BaseModel")
			if view.Frozen {
				imports.from("pydantic", "ConfigDict")
			}
		}
		if view.Table != "" {
			imports.from("typing", "ClassVar")
		}

	case schema.Handler:
		view.Trigger, _ = spec.StringAttr("trigger")
		view.Method, _ = spec.StringAttr("method")
		view.Route, _ = spec.StringAttr("route")
		view.Queue, _ = spec.StringAttr("queue")
		view.Schedule, _ = spec.StringAttr("schedule")
		view.Timeout, _ = spec.IntAttr("timeout")
		view.Memory, _ = spec.IntAttr("memory")
		if view.Trigger == "http" {
			if view.Route == "" {
				view.Route = defaultRoute(spec.Name())
			}
			view.SuccessCode = 200
			if view.Method == "POST" {
				view.SuccessCode = 201
			}
			imports.from("pydantic", "ValidationError")
		}
		view.RecordBody = recordBodies[view.Trigger]
		view.PayloadClass = exportedClass(schema.Handler, spec.Name())
		if view.Trigger != "schedule" && view.Trigger != "s3" {
			imports.plain("json")
		}
		imports.plain("logging")
		imports.from("typing", "Any")
		imports.from("pydantic", "BaseModel")

	case schema.ResourceBinding:
		view.Service, _ = spec.StringAttr("service")
		view.Resource, _ = spec.StringAttr("resource")
		view.EnvVar, _ = spec.StringAttr("env")
		if view.EnvVar == "" {
			view.EnvVar = generator.ScreamingSnake(spec.Name())
		}
		if len(view.Fields) > 0 {
			view.ItemClass = exportedClass(schema.ResourceBinding, spec.Name())
			imports.from("pydantic", "BaseModel")
		}
		imports.plain("os")
		imports.plain("boto3")
		imports.from("functools", "lru_cache")
		imports.from("typing", "Any")
	}

	view.Imports = imports.lines()
	view.Deferred = s.deferredImports(deferred)
	return view, nil
}

// deferredImports renders the imports of modules that import this one back.
// They run after every definition here, so whichever module loads first
// finds the other's class already bound. Annotations stay unevaluated until
// pydantic first builds the model.
func (s *Set) deferredImports(deferred *importSet) string {
	lines := deferred.lines()
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n" + s.syntax.Comment + " Imported last: these modules import this one.\n")
	for _, line := range lines {
		b.WriteString(line + "  # noqa: E402\n")
	}
	return b.String()
}

// recordBodies extracts one record's payload for batch triggers.
var recordBodies = map[string]string{
	"sqs": `json.loads(record["body"])`,
	"sns": `json.loads(record["Sns"]["Message"])`,
	"s3":  `{"bucket": record["s3"]["bucket"]["name"], "key": record["s3"]["object"]["key"], "size": record["s3"]["object"].get("size")}`,
}

// exportedClass is the class a module generated for an entity exposes for use
// as a field type: the model itself, a handler's request payload or a
// binding's item shape.
func exportedClass(kind schema.Kind, name string) string {
	class := generator.PascalCase(name)
	switch kind {
	case schema.Handler:
		return class + "Request"
	case schema.ResourceBinding:
		return class + "Item"
	default:
		return class
	}
}

// fieldDeclaration renders one field and records its imports: the field's
// own type in refs, anything else in imports. The second result reports
// whether Optional was used.
func (s *Set) fieldDeclaration(spec *schema.ValidatedSpec, f schema.FieldSpec, imports, refs *importSet) (fieldView, bool, error) {
	var annotation string
	switch {
	case f.Type.Ref != nil:
		ref := *f.Type.Ref
		annotation = exportedClass(ref.Kind, ref.Name)
		if ref.Kind != spec.Kind() || ref.Name != spec.Name() {
			module, err := s.modulePath(ref.Kind, ref.Name)
			if err != nil {
				return fieldView{}, false, err
			}
			refs.from(module, annotation)
		}
	default:
		pyType, imp, err := types.PythonType(f.Type.Primitive)
		if err != nil {
			return fieldView{}, false, err
		}
		annotation = pyType
		if imp != nil {
			imports.from(imp.Module, imp.Name)
		}
	}
	if f.Type.List {
		annotation = "list[" + annotation + "]"
	}

	decl := f.Name + ": " + annotation
	switch {
	case f.HasDefault():
		literal, err := types.FormatDefault(f.Type.Primitive, f.Default)
		if err != nil {
			return fieldView{}, false, fmt.Errorf("field %s: %w", f.Name, err)
		}
		decl += " = " + literal
	case !f.Required:
		return fieldView{Name: f.Name, Declaration: f.Name + ": Optional[" + annotation + "] = None"}, true, nil
	}
	return fieldView{Name: f.Name, Declaration: decl}, false, nil
}

var routeVerbs = []string{"get", "list", "create", "update", "delete", "patch", "put", "post", "fetch"}

// defaultRoute derives an HTTP route from a handler name: CreateUser → /users.
func defaultRoute(name string) string {
	words := strings.Split(generator.SnakeCase(name), "_")
	if len(words) > 1 && slices.Contains(routeVerbs, words[0]) {
		words = words[1:]
	}
	resource := strings.Join(words, "_")
	if !strings.HasSuffix(resource, "s") {
		resource = generator.Pluralize(resource)
	}
	return "/" + generator.KebabCase(resource)
}

// importSet collects Python imports and renders them in a stable order:
// plain imports first, then from-imports, each sorted by module and name.
type importSet struct {
	plains []string
	froms  []types.Import
}

func newImportSet() *importSet {
	return &importSet{}
}

func (s *importSet) plain(module string) {
	if !slices.Contains(s.plains, module) {
		s.plains = append(s.plains, module)
	}
}

func (s *importSet) from(module, name string) {
	imp := types.Import{Module: module, Name: name}
	if !slices.Contains(s.froms, imp) {
		s.froms = append(s.froms, imp)
	}
}

func (s *importSet) lines() []string {
	plains := slices.Clone(s.plains)
	slices.Sort(plains)

	froms := slices.Clone(s.froms)
	slices.SortFunc(froms, func(a, b types.Import) int {
		if c := strings.Compare(a.Module, b.Module); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	out := make([]string, 0, len(plains)+len(froms))
	for _, m := range plains {
		out = append(out, "import "+m)
	}
	for i := 0; i < len(froms); {
		j := i
		var names []string
		for ; j < len(froms) && froms[j].Module == froms[i].Module; j++ {
			names = append(names, froms[j].Name)
		}
		out = append(out, "from "+froms[i].Module+" import "+strings.Join(names, ", "))
		i = j
	}
	return out
}
