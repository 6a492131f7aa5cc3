package engine

import "context"

// funcStep is a minimal Step used across the engine package's tests: its
// behaviour is supplied as a plain function rather than a dedicated type
// per scenario.
type funcStep struct {
	BaseStep
	syncSafe bool
	fn       func(ctx context.Context, deps []Column, extra Extra) (Column, error)
}

func newFuncStep(id StepID, deps, dependents []StepID, syncSafe bool, fn func(context.Context, []Column, Extra) (Column, error)) *funcStep {
	return &funcStep{BaseStep: NewBaseStep(id, deps, dependents), syncSafe: syncSafe, fn: fn}
}

func (s *funcStep) IsSyncAndSafe() bool { return s.syncSafe }

func (s *funcStep) Execute(ctx context.Context, deps []Column, extra Extra) (Column, error) {
	return s.fn(ctx, deps, extra)
}

// constStep is a no-dependency, sync-and-safe step that always returns the
// same value for every row.
func constStep(id StepID, dependents []StepID, size int, v interface{}) *funcStep {
	return newFuncStep(id, nil, dependents, true, func(_ context.Context, _ []Column, _ Extra) (Column, error) {
		return ConstantColumn(size, v), nil
	})
}
