// Package writer persists a generation manifest. Every write is staged in a
// single transaction: either all changed files land on disk or none do.
package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/simonhull/firebird-suite/quill/internal/engine"
	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
)

// ErrCancelled is returned when a conflict resolution cancels the run.
var ErrCancelled = errors.New("generation cancelled")

// Options configures Apply.
type Options struct {
	Root     string              // output root; manifest paths are relative to it
	DryRun   bool                // report without writing
	Resolver *generator.Resolver // decides conflicts; nil skips them
	Out      io.Writer           // per-operation progress, discarded when nil
	Logger   logger.Logger
}

// Result is what Apply did with each manifest entry.
type Result struct {
	Written   []engine.Entry // created, updated and overwritten conflicts
	Skipped   []engine.Entry // conflicts left untouched
	Unchanged int
	Bytes     int
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d written (%s), %d skipped, %d unchanged",
		len(r.Written), humanize.Bytes(uint64(r.Bytes)), len(r.Skipped), r.Unchanged)
}

// Apply writes the created and updated entries of m and routes conflicts
// through opts.Resolver. Files that changed on disk since the manifest was
// produced fail validation with generator.ErrStale and nothing is written.
func Apply(ctx context.Context, m *engine.Manifest, opts Options) (*Result, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = generator.NewResolverWithStrategy(&generator.SkipStrategy{})
	}
	log := opts.Logger.WithFields(logger.F("run", m.RunID))

	res := &Result{}
	var ops []generator.Operation
	for _, e := range m.Entries {
		switch e.Action {
		case generator.ActionUnchanged:
			res.Unchanged++
			continue

		case generator.ActionConflict:
			if opts.DryRun {
				res.Skipped = append(res.Skipped, e)
				continue
			}
			if e.Unreadable {
				log.Warn("unreadable file skipped", logger.F("path", e.Path), logger.F("reason", e.Diagnostic))
				res.Skipped = append(res.Skipped, e)
				continue
			}
			decision, err := resolve(resolver, opts.Root, e)
			if err != nil {
				return nil, fmt.Errorf("resolving conflict for %s: %w", e.Path, err)
			}
			log.Debug("conflict resolved", logger.F("path", e.Path), logger.F("decision", decision))
			switch decision {
			case generator.Cancel:
				return nil, ErrCancelled
			case generator.Overwrite:
			default:
				res.Skipped = append(res.Skipped, e)
				continue
			}
		}

		ops = append(ops, &generator.WriteFileOp{
			Path:     filepath.Join(opts.Root, filepath.FromSlash(e.Path)),
			Content:  nonNil(e.Content),
			Mode:     0644,
			BaseHash: e.BaseHash,
		})
		res.Written = append(res.Written, e)
		res.Bytes += len(e.Content)
	}

	if err := generator.Execute(ctx, ops, generator.ExecuteOptions{DryRun: opts.DryRun, Writer: opts.Out}); err != nil {
		log.Error("write failed", logger.F("error", err))
		return nil, err
	}
	log.Info("manifest applied", logger.F("summary", res.Summary()), logger.F("dry_run", opts.DryRun))
	return res, nil
}

func resolve(r *generator.Resolver, root string, e engine.Entry) (generator.ConflictResolution, error) {
	path := filepath.Join(root, filepath.FromSlash(e.Path))
	existing, _ := os.ReadFile(path) // an unreadable file diffs as empty
	return r.ResolveConflict(generator.Conflict{
		Path:       path,
		Existing:   existing,
		Suggested:  e.Content,
		Diagnostic: e.Diagnostic,
	})
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
