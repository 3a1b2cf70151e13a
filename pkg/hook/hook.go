// Package hook implements ordered callback lists with three combination
// policies: series (run in order, stop on first error), parallel (run
// concurrently, join errors) and bail (first defined result wins).
//
// Participants are ordered by ascending stage; participants with the same
// stage keep their registration order.
package hook

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// TapOption configures a registered participant.
type TapOption func(*tapConfig)

type tapConfig struct {
	stage int
}

// WithStage sets the participant's stage. Lower stages run first; the default is 0.
func WithStage(stage int) TapOption {
	return func(c *tapConfig) {
		c.stage = stage
	}
}

// Tap is a registered participant.
type Tap[F any] struct {
	Name  string
	Stage int
	Fn    F
}

// ParticipantError wraps an error returned by a participant.
type ParticipantError struct {
	Hook        string
	Participant string
	Err         error
}

func (e *ParticipantError) Error() string {
	return fmt.Sprintf("%s hook: %s: %v", e.Hook, e.Participant, e.Err)
}

func (e *ParticipantError) Unwrap() error {
	return e.Err
}

// list is the ordered participant list shared by all combinators.
type list[F any] struct {
	name string
	taps []Tap[F]
}

func (l *list[F]) tap(name string, fn F, opts []TapOption) {
	cfg := tapConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	l.taps = append(l.taps, Tap[F]{Name: name, Stage: cfg.stage, Fn: fn})
	// Stable sort keeps registration order within a stage.
	slices.SortStableFunc(l.taps, func(a, b Tap[F]) int {
		return cmp.Compare(a.Stage, b.Stage)
	})
}

// Taps returns the participants in invocation order.
func (l *list[F]) Taps() []Tap[F] {
	return slices.Clone(l.taps)
}

// Name returns the hook name used in errors.
func (l *list[F]) Name() string {
	return l.name
}

func (l *list[F]) wrap(t Tap[F], err error) error {
	return &ParticipantError{Hook: l.name, Participant: t.Name, Err: err}
}

// Series runs participants one after another and stops at the first error.
type Series[T any] struct {
	list[func(context.Context, T) error]
}

// NewSeries creates an empty series hook.
func NewSeries[T any](name string) *Series[T] {
	return &Series[T]{list: list[func(context.Context, T) error]{name: name}}
}

// Tap registers a participant.
func (h *Series[T]) Tap(name string, fn func(context.Context, T) error, opts ...TapOption) {
	h.tap(name, fn, opts)
}

// Call invokes every participant in order with arg.
func (h *Series[T]) Call(ctx context.Context, arg T) error {
	for _, t := range h.Taps() {
		if err := t.Fn(ctx, arg); err != nil {
			return h.wrap(t, err)
		}
	}
	return nil
}
