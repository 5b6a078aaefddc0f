package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Operation is a file system change that can be validated, executed and
// undone.
//
// Validate checks that the operation would succeed without touching the disk.
// Execute performs it; Rollback reverts a successful Execute.
// Description returns a human-readable summary, e.g. "Create models/user.py (234 bytes)".
type Operation interface {
	Validate(ctx context.Context) error
	Execute(ctx context.Context) error
	Rollback() error
	Description() string
}

// ErrStale is returned when a file changed after its content was merged.
var ErrStale = errors.New("file changed since it was generated")

// WriteFileOp writes generated content to a path.
//
// BaseHash is the ContentHash of the file the content was merged against; an
// empty BaseHash means the file must not exist yet. Validation fails with
// ErrStale if the file on disk no longer matches, so edits made between
// generation and writing are never clobbered.
type WriteFileOp struct {
	Path     string
	Content  []byte      // must not be nil; empty is allowed
	Mode     fs.FileMode // e.g. 0644
	BaseHash string

	executed bool
	backup   []byte // previous content, nil when the file did not exist
	existed  bool
	madeDirs []string
}

// ContentHash returns the hex sha256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (op *WriteFileOp) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}

	current, err := os.ReadFile(op.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if op.BaseHash != "" {
			return fmt.Errorf("%s: %w (file was removed)", op.Path, ErrStale)
		}
	case err != nil:
		return fmt.Errorf("cannot read %s: %w", op.Path, err)
	case op.BaseHash == "":
		return fmt.Errorf("%s: %w (file now exists)", op.Path, ErrStale)
	case ContentHash(current) != op.BaseHash:
		return fmt.Errorf("%s: %w", op.Path, ErrStale)
	}
	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	previous, err := os.ReadFile(op.Path)
	switch {
	case err == nil:
		op.backup, op.existed = previous, true
	case errors.Is(err, fs.ErrNotExist):
		op.backup, op.existed = nil, false
	default:
		return fmt.Errorf("cannot read %s: %w", op.Path, err)
	}

	dirs, err := mkdirAll(filepath.Dir(op.Path))
	if err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", op.Path, err)
	}
	op.madeDirs = dirs

	if err := os.WriteFile(op.Path, op.Content, op.Mode); err != nil {
		return fmt.Errorf("failed to write file %s: %w", op.Path, err)
	}
	op.executed = true
	return nil
}

// Rollback restores the previous content, or removes the file and any
// directories Execute created.
func (op *WriteFileOp) Rollback() error {
	if !op.executed {
		return nil
	}
	op.executed = false

	if op.existed {
		return os.WriteFile(op.Path, op.backup, op.Mode)
	}
	if err := os.Remove(op.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := len(op.madeDirs) - 1; i >= 0; i-- {
		_ = os.Remove(op.madeDirs[i]) // only succeeds while empty
	}
	return nil
}

func (op *WriteFileOp) Description() string {
	verb := "Create"
	if op.BaseHash != "" {
		verb = "Update"
	}
	return fmt.Sprintf("%s %s (%d bytes)", verb, op.Path, len(op.Content))
}

// mkdirAll creates dir and returns the directories it had to create,
// outermost first.
func mkdirAll(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}
