package engine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Lookup returns the current content at a slash-separated output path.
// exists is false, with a nil error, when nothing is there yet.
type Lookup func(path string) (content []byte, exists bool, err error)

// DirLookup reads existing files relative to root.
func DirLookup(root string) Lookup {
	return func(path string) ([]byte, bool, error) {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}

// MapLookup serves existing files from memory, keyed by output path.
func MapLookup(files map[string]string) Lookup {
	return func(path string) ([]byte, bool, error) {
		content, ok := files[path]
		if !ok {
			return nil, false, nil
		}
		return []byte(content), true, nil
	}
}
