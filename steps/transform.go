package steps

import (
	"context"

	"github.com/bucketrun/bucketrun/engine"
)

// TransformFunc maps one input cell to one output cell. It must be pure and
// infallible: a computation that can fail per row belongs in a step that is
// not sync-and-safe, so its failures can travel as an ErrorValue instead.
type TransformFunc func(in interface{}) interface{}

// TransformStep applies fn row by row over its single dependency's column.
// It is sync-and-safe: fn runs synchronously, never blocks, and never
// manufactures an error the framework didn't already know about.
type TransformStep struct {
	engine.BaseStep
	Fn TransformFunc
}

func NewTransformStep(id engine.StepID, dependency engine.StepID, dependents []engine.StepID, fn TransformFunc) *TransformStep {
	return &TransformStep{BaseStep: engine.NewBaseStep(id, []engine.StepID{dependency}, dependents), Fn: fn}
}

func (s *TransformStep) IsSyncAndSafe() bool { return true }

func (s *TransformStep) Execute(ctx context.Context, deps []engine.Column, extra engine.Extra) (engine.Column, error) {
	in := deps[0]
	out := make(engine.Column, len(in))
	for i, cell := range in {
		if engine.IsError(cell) {
			// The error-aware invoker already filters errored rows out
			// before a sync-and-safe step like this one ever runs; this
			// guards direct callers of Execute that skip it.
			out[i] = cell
			continue
		}
		out[i] = s.Fn(cell)
	}
	return out, nil
}
