// Package flow runs named step pipelines over a typed state and bounds
// fan-out concurrency.
package flow

import (
	"context"
	"fmt"
)

type Step[S any] struct {
	Name    string
	Execute func(ctx context.Context, state *S) error
}

func NewStep[S any](name string, execute func(ctx context.Context, state *S) error) Step[S] {
	return Step[S]{Name: name, Execute: execute}
}

type Flow[S any] struct {
	name  string
	steps []Step[S]
}

func New[S any](name string, steps ...Step[S]) *Flow[S] {
	return &Flow[S]{name: name, steps: steps}
}

func (f *Flow[S]) Name() string {
	return f.name
}

// Then returns a new flow running f's steps followed by steps.
func (f *Flow[S]) Then(name string, steps ...Step[S]) *Flow[S] {
	all := make([]Step[S], 0, len(f.steps)+len(steps))
	all = append(all, f.steps...)
	all = append(all, steps...)
	return &Flow[S]{name: name, steps: all}
}

// Run executes the steps in order and stops at the first failure. The
// returned error wraps the step error, so errors.As still reaches it.
func (f *Flow[S]) Run(ctx context.Context, state *S) error {
	for _, step := range f.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: cancelled before step %s: %w", f.name, step.Name, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return &StepError{Flow: f.name, Step: step.Name, Err: err}
		}
	}
	return nil
}

type StepError struct {
	Flow string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s step failed: %v", e.Flow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
