package hook

import "context"

// Bail invokes participants in order until one returns a defined result.
type Bail[A, R any] struct {
	list[func(context.Context, A) (R, bool, error)]
	interceptors []func(context.Context, A)
}

// NewBail creates an empty bail hook.
func NewBail[A, R any](name string) *Bail[A, R] {
	return &Bail[A, R]{list: list[func(context.Context, A) (R, bool, error)]{name: name}}
}

// Tap registers a participant. A participant returns ok=false to pass the
// call on to the next one.
func (h *Bail[A, R]) Tap(name string, fn func(context.Context, A) (R, bool, error), opts ...TapOption) {
	h.tap(name, fn, opts)
}

// Intercept registers fn to observe every call before participants run.
func (h *Bail[A, R]) Intercept(fn func(context.Context, A)) {
	h.interceptors = append(h.interceptors, fn)
}

// Call returns the first defined result. An error stops the call and is
// returned wrapped; ok is false when no participant produced a result.
func (h *Bail[A, R]) Call(ctx context.Context, arg A) (R, bool, error) {
	for _, fn := range h.interceptors {
		fn(ctx, arg)
	}

	var zero R
	for _, t := range h.Taps() {
		r, ok, err := t.Fn(ctx, arg)
		if err != nil {
			return zero, false, h.wrap(t, err)
		}
		if ok {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// SyncBail is a Bail hook for cheap, non-blocking participants.
type SyncBail[A, R any] struct {
	list[func(A) (R, bool)]
}

// NewSyncBail creates an empty synchronous bail hook.
func NewSyncBail[A, R any](name string) *SyncBail[A, R] {
	return &SyncBail[A, R]{list: list[func(A) (R, bool)]{name: name}}
}

// Tap registers a participant.
func (h *SyncBail[A, R]) Tap(name string, fn func(A) (R, bool), opts ...TapOption) {
	h.tap(name, fn, opts)
}

// Call returns the first defined result.
func (h *SyncBail[A, R]) Call(arg A) (R, bool) {
	for _, t := range h.taps {
		if r, ok := t.Fn(arg); ok {
			return r, true
		}
	}
	var zero R
	return zero, false
}
