package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

// Manifest is the outcome of one generation run, one entry per entity in
// input order.
type Manifest struct {
	RunID       uuid.UUID `yaml:"run_id" json:"run_id"`
	TemplateSet string    `yaml:"template_set" json:"template_set"`
	Entries     []Entry   `yaml:"entries" json:"entries"`
}

// Entry is the outcome for one entity.
type Entry struct {
	Path        string           `yaml:"path" json:"path"`
	Entity      string           `yaml:"entity" json:"entity"`
	Kind        schema.Kind      `yaml:"kind" json:"kind"`
	Action      generator.Action `yaml:"action" json:"action"`
	DiffSummary string           `yaml:"diff,omitempty" json:"diff,omitempty"`
	Diagnostic  string           `yaml:"diagnostic,omitempty" json:"diagnostic,omitempty"`

	// Content is the file to write: the merged result, or the fresh render
	// for a conflict. Nil for unchanged entries.
	Content []byte `yaml:"-" json:"-"`

	// BaseHash identifies the file the merge saw; empty when none existed.
	BaseHash string `yaml:"base_hash,omitempty" json:"base_hash,omitempty"`

	// Unreadable marks a conflict on a file that could not be read. There is
	// no snapshot to check against, so the file is never overwritten.
	Unreadable bool `yaml:"unreadable,omitempty" json:"unreadable,omitempty"`
}

// Counts tallies entries per action.
type Counts struct {
	Created   int
	Updated   int
	Unchanged int
	Conflict  int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d conflicts", c.Created, c.Updated, c.Unchanged, c.Conflict)
}

// Counts tallies the entries per action.
func (m *Manifest) Counts() Counts {
	var c Counts
	for _, e := range m.Entries {
		switch e.Action {
		case generator.ActionCreated:
			c.Created++
		case generator.ActionUpdated:
			c.Updated++
		case generator.ActionUnchanged:
			c.Unchanged++
		case generator.ActionConflict:
			c.Conflict++
		}
	}
	return c
}

// HasConflicts reports whether any entry is a conflict.
func (m *Manifest) HasConflicts() bool {
	return m.Counts().Conflict > 0
}

// Changed returns the created and updated entries.
func (m *Manifest) Changed() []Entry {
	return m.filter(func(e Entry) bool {
		return e.Action == generator.ActionCreated || e.Action == generator.ActionUpdated
	})
}

// Conflicts returns the conflicting entries.
func (m *Manifest) Conflicts() []Entry {
	return m.filter(func(e Entry) bool { return e.Action == generator.ActionConflict })
}

func (m *Manifest) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// EncodeYAML renders the manifest as YAML.
func (m *Manifest) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

// EncodeJSON renders the manifest as indented JSON.
func (m *Manifest) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile saves the manifest as JSON when path ends in .json and as YAML
// otherwise.
func (m *Manifest) WriteFile(path string) error {
	encode := m.EncodeYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		encode = m.EncodeJSON
	}
	data, err := encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
