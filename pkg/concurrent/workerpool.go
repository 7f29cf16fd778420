// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides a small worker pool used to fan out
// independent per-participant reads during availability analysis.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs independent functions concurrently with a bounded number
// of goroutines.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a pool with the specified number of workers.
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{workerCount: workerCount}
}

// Run executes all functions, stopping on the first error. Remaining work is
// cancelled through the derived context and the first error is returned.
func (wp *WorkerPool) Run(ctx context.Context, functions ...func() error) error {
	if len(functions) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, fn := range functions {
		fn := fn
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			return fn()
		})
	}

	return g.Wait()
}

// RunAll executes all functions without cancelling on error and returns the
// non-nil errors that occurred, in no particular order.
func (wp *WorkerPool) RunAll(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	errCh := make(chan error, len(functions))

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for _, fn := range functions {
		fn := fn
		g.Go(func() error {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return nil
			default:
			}

			if err := fn(); err != nil {
				errCh <- err
			}
			// Never propagate to the errgroup so the remaining work runs.
			return nil
		})
	}

	_ = g.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}
