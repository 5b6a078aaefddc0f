package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/quill/internal/filesystem"
)

// document is the wrapped spec shape: a top-level entities list.
type document struct {
	Entities []RawEntity `yaml:"entities"`
}

// LoadFile reads a spec file (YAML or JSON).
func LoadFile(path string) ([]RawEntity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses a spec document. The document is either a mapping with an
// "entities" list or a bare list of entities. source is recorded on every
// entity for error reporting.
func LoadBytes(data []byte, source string) ([]RawEntity, error) {
	// First pass: parse with node API to get line numbers
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: failed to parse spec: %w", source, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	lineMap := make(map[string]int)
	body := root.Content[0]
	switch body.Kind {
	case yaml.SequenceNode:
		extractLineNumbers(body, "entities", lineMap)
	case yaml.MappingNode:
		extractLineNumbers(body, "", lineMap)
	default:
		return nil, fmt.Errorf("%s: spec must be a list of entities or a mapping with an \"entities\" key", source)
	}

	// Second pass: strict parsing with KnownFields
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var entities []RawEntity
	if body.Kind == yaml.SequenceNode {
		if err := decoder.Decode(&entities); err != nil {
			return nil, fmt.Errorf("%s: failed to parse spec (check for unknown/misspelled keys): %w", source, err)
		}
	} else {
		var doc document
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: failed to parse spec (check for unknown/misspelled keys): %w", source, err)
		}
		entities = doc.Entities
	}

	for i := range entities {
		entities[i].Source = source
		entities[i].Line = lineMap[fmt.Sprintf("entities.%d", i)]
		for j := range entities[i].Fields {
			entities[i].Fields[j].Line = lineMap[fmt.Sprintf("entities.%d.fields.%d", i, j)]
		}
	}
	return entities, nil
}

// LoadDir loads every spec file under dir (or dir itself when it is a file),
// concatenating entities in lexical path order.
func LoadDir(dir string) ([]RawEntity, error) {
	files, err := filesystem.FindSpecFiles(dir, filesystem.WalkOptions{})
	if err != nil {
		return nil, err
	}

	var all []RawEntity
	for _, file := range files {
		entities, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		all = append(all, entities...)
	}
	return all, nil
}

// extractLineNumbers records the line of every node under path, using dotted
// keys ("entities.0.fields.1").
func extractLineNumbers(node *yaml.Node, path string, lineMap map[string]int) {
	if node == nil {
		return
	}
	if path != "" {
		lineMap[path] = node.Line
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			extractLineNumbers(node.Content[0], path, lineMap)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if path != "" {
				key = path + "." + key
			}
			extractLineNumbers(node.Content[i+1], key, lineMap)
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			extractLineNumbers(child, fmt.Sprintf("%s.%d", path, i), lineMap)
		}
	}
}
