package generator

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ExecuteOptions configures execution behavior
type ExecuteOptions struct {
	DryRun bool
	Writer io.Writer // Where to write progress (defaults to os.Stdout)
}

// Execute validates every operation, then commits them as one transaction.
// In dry-run mode nothing is written; the operations are only reported.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	if opts.DryRun {
		for _, op := range ops {
			if err := op.Validate(ctx); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}
		for _, op := range ops {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
		}
		return nil
	}

	tx := NewTransaction()
	for _, op := range ops {
		tx.Add(op)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for _, op := range ops {
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}
	return nil
}
