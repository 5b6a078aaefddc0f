// Package generator provides the text-level machinery behind quill's code
// generation: naming helpers for templates, managed-region parsing, the merge
// engine that reconciles fresh renders with files already on disk, Myers diffs,
// and transactional file operations with conflict resolution.
//
// # Managed regions
//
// A managed region is a span of a generated file that regeneration never
// overwrites. It is delimited by a marker pair written as line comments in the
// target language:
//
//	# quill:begin handler
//	result = do_something(payload)
//	# quill:end handler
//
// Everything outside a region is owned by the generator and is replaced on the
// next run. Regions are matched by identifier, not position, so templates may
// reorder surrounding code freely.
//
// # Merging
//
//	m := generator.NewMerger(generator.MarkerSyntax{Comment: "#"})
//	res, err := m.Merge(fresh, existing, exists)
//	// res.Action is created, updated, unchanged or conflict
//
// # Transactions
//
// Writes are staged as operations and committed together:
//
//	tx := generator.NewTransaction()
//	tx.Add(&generator.WriteFileOp{Path: "models/user.py", Content: content, Mode: 0644})
//	if err := tx.Commit(ctx); err != nil {
//	    // files written before the failure were restored
//	    return err
//	}
package generator
