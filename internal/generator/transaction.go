package generator

import (
	"context"
	"errors"
	"fmt"
)

// Transaction is an ordered set of operations that are committed together.
// If any operation fails, every operation already executed is rolled back in
// reverse order.
type Transaction struct {
	ops       []Operation
	committed bool
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Add stages an operation (nothing is executed yet).
func (t *Transaction) Add(op Operation) {
	t.ops = append(t.ops, op)
}

// Len returns the number of staged operations.
func (t *Transaction) Len() int {
	return len(t.ops)
}

// Commit validates all staged operations and then executes them in order.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}

	for _, op := range t.ops {
		if err := op.Validate(ctx); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for i, op := range t.ops {
		if err := op.Execute(ctx); err != nil {
			if rbErr := rollback(t.ops[:i]); rbErr != nil {
				return errors.Join(fmt.Errorf("execution failed: %w", err), rbErr)
			}
			return fmt.Errorf("execution failed: %w", err)
		}
	}

	t.committed = true
	return nil
}

// Rollback undoes a committed transaction. It is a no-op otherwise, so it is
// safe to defer.
func (t *Transaction) Rollback() error {
	if !t.committed {
		return nil
	}
	t.committed = false
	return rollback(t.ops)
}

func rollback(ops []Operation) error {
	var errs []error
	for i := len(ops) - 1; i >= 0; i-- {
		if err := ops[i].Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rollback %s: %w", ops[i].Description(), err))
		}
	}
	return errors.Join(errs...)
}
