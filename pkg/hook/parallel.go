package hook

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Parallel runs all participants concurrently and aggregates their errors.
type Parallel[T any] struct {
	list[func(context.Context, T) error]
}

// NewParallel creates an empty parallel hook.
func NewParallel[T any](name string) *Parallel[T] {
	return &Parallel[T]{list: list[func(context.Context, T) error]{name: name}}
}

// Tap registers a participant. Stage only affects the order in which
// participants are started.
func (h *Parallel[T]) Tap(name string, fn func(context.Context, T) error, opts ...TapOption) {
	h.tap(name, fn, opts)
}

// Call starts every participant and waits for all of them. Failures do not
// cancel the others; the returned error joins every participant error.
func (h *Parallel[T]) Call(ctx context.Context, arg T) error {
	taps := h.Taps()
	if len(taps) == 0 {
		return nil
	}

	p := pool.New().WithErrors()
	for _, t := range taps {
		p.Go(func() error {
			if err := t.Fn(ctx, arg); err != nil {
				return h.wrap(t, err)
			}
			return nil
		})
	}
	return p.Wait()
}
