// Package templates resolves entities to templates and output paths and
// renders them into Python source.
//
// A Set is built once with Load and passed by reference; it holds no mutable
// state, so Resolve, OutputPath and Render are safe for concurrent use.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

//go:embed python/*.py.tmpl
var templatesFS embed.FS

// DefaultSetID is the template set used when none is configured.
const DefaultSetID = "python/v1"

// setDef is the explicit kind → template table for one template set.
type setDef struct {
	comment string // line-comment leader of the target language
	ext     string
	entries []entryDef
}

type entryDef struct {
	kind schema.Kind
	file string
	dir  string
}

var setDefs = map[string]setDef{
	"python/v1": {
		comment: "#",
		ext:     ".py",
		entries: []entryDef{
			{kind: schema.Class, file: "python/class.py.tmpl", dir: "models"},
			{kind: schema.Handler, file: "python/handler.py.tmpl", dir: "handlers"},
			{kind: schema.ResourceBinding, file: "python/resource_binding.py.tmpl", dir: "resources"},
		},
	},
}

// Available returns the identifiers of the known template sets.
func Available() []string {
	ids := make([]string, 0, len(setDefs))
	for id := range setDefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Template is the fixed rendering rule for one kind.
type Template struct {
	Kind schema.Kind
	Dir  string // output directory, e.g. "models"
	Ext  string // output extension, e.g. ".py"
	File string // embedded template file

	set  *Set
	tmpl *template.Template
}

// Version returns the identifier of the set the template belongs to.
func (t *Template) Version() string {
	return t.set.id
}

// Set is a versioned, read-only collection of templates, one per kind.
type Set struct {
	id        string
	syntax    generator.MarkerSyntax
	templates map[schema.Kind]*Template
}

// Load builds the template set with the given identifier.
func Load(id string) (*Set, error) {
	def, ok := setDefs[id]
	if !ok {
		return nil, &TemplateError{Set: id, Err: fmt.Errorf("unknown template set (available: %s)", strings.Join(Available(), ", "))}
	}
	return newSet(id, def, templatesFS)
}

func newSet(id string, def setDef, fsys fs.FS) (*Set, error) {
	s := &Set{
		id:        id,
		syntax:    generator.MarkerSyntax{Comment: def.comment},
		templates: make(map[schema.Kind]*Template, len(def.entries)),
	}
	funcs := s.funcMap()

	for _, e := range def.entries {
		src, err := fs.ReadFile(fsys, e.file)
		if err != nil {
			return nil, &TemplateError{Set: id, Kind: e.kind, Err: fmt.Errorf("failed to read template: %w", err)}
		}
		tmpl, err := template.New(path.Base(e.file)).Funcs(funcs).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, &TemplateError{Set: id, Kind: e.kind, Err: fmt.Errorf("failed to parse template: %w", err)}
		}
		s.templates[e.kind] = &Template{
			Kind: e.kind,
			Dir:  e.dir,
			Ext:  def.ext,
			File: e.file,
			set:  s,
			tmpl: tmpl,
		}
	}

	for _, kind := range schema.AllKinds() {
		if _, ok := s.templates[kind]; !ok {
			return nil, &TemplateError{Set: id, Kind: kind, Err: ErrMissingTemplate}
		}
	}
	return s, nil
}

// ID returns the template set identifier, e.g. "python/v1".
func (s *Set) ID() string {
	return s.id
}

// MarkerSyntax returns the managed-region marker syntax of the target
// language.
func (s *Set) MarkerSyntax() generator.MarkerSyntax {
	return s.syntax
}

// Template returns the template for kind.
func (s *Set) Template(kind schema.Kind) (*Template, error) {
	t, ok := s.templates[kind]
	if !ok {
		return nil, &TemplateError{Set: s.id, Kind: kind, Err: ErrMissingTemplate}
	}
	return t, nil
}

// Templates returns every template in kind order.
func (s *Set) Templates() []*Template {
	out := make([]*Template, 0, len(s.templates))
	for _, kind := range schema.AllKinds() {
		out = append(out, s.templates[kind])
	}
	return out
}

// OutputPath returns the slash-separated path, relative to the output root,
// that an entity of kind named name is written to.
func (s *Set) OutputPath(kind schema.Kind, name string) (string, error) {
	t, err := s.Template(kind)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("empty entity name")
	}
	return path.Join(t.Dir, generator.SnakeCase(name)+t.Ext), nil
}

// Resolve returns the template and output path for spec.
func (s *Set) Resolve(spec *schema.ValidatedSpec) (*Template, string, error) {
	t, err := s.Template(spec.Kind())
	if err != nil {
		return nil, "", err
	}
	p, err := s.OutputPath(spec.Kind(), spec.Name())
	if err != nil {
		return nil, "", err
	}
	return t, p, nil
}

// modulePath converts an output path to a Python module path:
// models/user_profile.py → models.user_profile.
func (s *Set) modulePath(kind schema.Kind, name string) (string, error) {
	p, err := s.OutputPath(kind, name)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(strings.TrimSuffix(p, path.Ext(p)), "/", "."), nil
}

// funcMap extends the generator helpers with region markers in this set's
// comment syntax.
func (s *Set) funcMap() template.FuncMap {
	funcs := generator.FuncMap()
	funcs["region"] = func(id string, indent int) string {
		pad := strings.Repeat(" ", indent)
		return pad + s.syntax.Begin(id) + "\n" + pad + s.syntax.End(id)
	}
	funcs["beginRegion"] = func(id string, indent int) string {
		return strings.Repeat(" ", indent) + s.syntax.Begin(id)
	}
	funcs["endRegion"] = func(id string, indent int) string {
		return strings.Repeat(" ", indent) + s.syntax.End(id)
	}
	funcs["pyDoc"] = pyDoc
	return funcs
}

// pyDoc renders text as a one-line Python docstring.
func pyDoc(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	if strings.HasSuffix(text, `"`) {
		text += " "
	}
	return `"""` + text + `"""`
}
