package engine

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/firebird-suite/quill/internal/generator"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/templates"
)

// TemplateError aborts a run: the generator itself is broken.
type TemplateError = templates.TemplateError

// Engine orchestrates rendering and merging. It is safe for concurrent use.
type Engine struct {
	set     *templates.Set
	merger  *generator.Merger
	workers int
	log     logger.Logger
	recheck bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers caps how many entities are processed at once. Values below one
// mean one.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = max(n, 1)
	}
}

// WithLogger sets the diagnostic logger. The default is silent.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDeterminismCheck renders every entity twice and fails the run if the
// outputs differ.
func WithDeterminismCheck(on bool) Option {
	return func(e *Engine) {
		e.recheck = on
	}
}

// New creates an engine rendering with set.
func New(set *templates.Set, opts ...Option) *Engine {
	e := &Engine{
		set:     set,
		merger:  generator.NewMerger(set.MarkerSyntax()),
		workers: runtime.GOMAXPROCS(0),
		log:     logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate produces the manifest for specs. Entities are processed in
// parallel but the manifest lists them in input order. A lookup failure
// becomes a conflict entry; a *TemplateError aborts the run and no manifest
// is returned.
func (e *Engine) Generate(ctx context.Context, specs []*schema.ValidatedSpec, lookup Lookup) (*Manifest, error) {
	runID := uuid.New()
	log := e.log.WithFields(logger.F("run", runID))
	log.Debug("generation started", logger.F("entities", len(specs)), logger.F("workers", e.workers))

	entries := make([]Entry, len(specs))
	locks := newPathLocks()

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i, spec := range specs {
		eg.Go(func() error {
			entry, err := e.generateOne(ectx, spec, lookup, locks)
			if err != nil {
				return err
			}
			entries[i] = entry
			log.Debug("entity processed",
				logger.F("entity", entry.Entity),
				logger.F("path", entry.Path),
				logger.F("action", entry.Action))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error("generation aborted", logger.F("error", err))
		return nil, err
	}

	m := &Manifest{RunID: runID, TemplateSet: e.set.ID(), Entries: entries}
	log.Info("generation finished", logger.F("summary", m.Counts()))
	return m, nil
}

func (e *Engine) generateOne(ctx context.Context, spec *schema.ValidatedSpec, lookup Lookup, locks *pathLocks) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	tmpl, path, err := e.set.Resolve(spec)
	if err != nil {
		return Entry{}, err
	}
	fresh, err := templates.Render(spec, tmpl)
	if err != nil {
		return Entry{}, err
	}
	if e.recheck {
		again, err := templates.Render(spec, tmpl)
		if err != nil {
			return Entry{}, err
		}
		if !bytes.Equal(fresh, again) {
			return Entry{}, e.templateError(spec, templates.ErrNonDeterministic)
		}
	}

	entry := Entry{Path: path, Entity: spec.Name(), Kind: spec.Kind()}

	unlock := locks.lock(path)
	defer unlock()

	existing, exists, err := lookup(path)
	if err != nil {
		entry.Action = generator.ActionConflict
		entry.Content = fresh
		entry.Unreadable = true
		entry.Diagnostic = fmt.Sprintf("failed to read existing file: %v (left untouched)", err)
		return entry, nil
	}

	result, err := e.merger.Merge(fresh, existing, exists)
	if err != nil {
		return Entry{}, e.templateError(spec, fmt.Errorf("%w: %v", templates.ErrMalformedMarkers, err))
	}

	entry.Action = result.Action
	entry.Diagnostic = result.Diagnostic
	if exists {
		entry.BaseHash = generator.ContentHash(existing)
	}
	if result.Action != generator.ActionUnchanged {
		entry.Content = result.Content
		entry.DiffSummary = generator.Stat(existing, result.Content).String()
	}
	return entry, nil
}

func (e *Engine) templateError(spec *schema.ValidatedSpec, err error) error {
	return &TemplateError{Set: e.set.ID(), Kind: spec.Kind(), Entity: spec.Name(), Err: err}
}

// pathLocks serializes work on the same output path.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pathLocks) lock(path string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
