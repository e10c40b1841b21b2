// Package race provides the combinators used to coordinate redundant UI signals.
//
// First resolves on the first candidate that succeeds and cancels the rest.
// All runs independent best-effort tasks to completion and joins their errors.
package race

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Candidate is one competing wait in a race.
type Candidate[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is the value produced by the winning candidate.
type Result[T any] struct {
	Value  T
	Winner string
}

// NoWinnerError is returned when every candidate of a race failed.
type NoWinnerError struct {
	Errors []error
}

func (e *NoWinnerError) Error() string {
	return fmt.Sprintf("no candidate succeeded: %v", errors.Join(e.Errors...))
}

// Unwrap exposes the candidate errors to errors.Is and errors.As.
func (e *NoWinnerError) Unwrap() []error {
	return e.Errors
}

// First runs every candidate concurrently and returns the first success.
// Losing candidates observe a cancelled context. When every candidate fails,
// the returned *NoWinnerError carries each candidate error.
func First[T any](ctx context.Context, candidates ...Candidate[T]) (Result[T], error) {
	if len(candidates) == 0 {
		return Result[T]{}, errors.New("race: no candidates")
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		winner Result[T]
		won    bool
		mu     sync.Mutex
		errs   = make([]error, len(candidates))
	)

	p := pool.New().WithContext(raceCtx)
	for i, c := range candidates {
		p.Go(func(ctx context.Context) error {
			v, err := c.Run(ctx)
			if err != nil {
				mu.Lock()
				errs[i] = fmt.Errorf("%s: %w", c.Name, err)
				mu.Unlock()
				return nil
			}
			once.Do(func() {
				mu.Lock()
				winner = Result[T]{Value: v, Winner: c.Name}
				won = true
				mu.Unlock()
				cancel()
			})
			return nil
		})
	}
	_ = p.Wait()

	if won {
		return winner, nil
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}
	return Result[T]{}, &NoWinnerError{Errors: compact(errs)}
}

// Task is one best-effort operation run by All.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// All runs every task concurrently, never cancelling siblings when one fails.
// The returned error joins every task failure, prefixed with the task name.
func All(ctx context.Context, tasks ...Task) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, t := range tasks {
		p.Go(func(ctx context.Context) error {
			if err := t.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			return nil
		})
	}
	return p.Wait()
}

func compact(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
