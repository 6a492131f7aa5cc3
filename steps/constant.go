package steps

import (
	"context"

	"github.com/bucketrun/bucketrun/engine"
)

// ConstantStep has no dependencies and produces the same value on every
// row of every bucket it runs against. It is always sync-and-safe: it
// never blocks and never introduces an error.
type ConstantStep struct {
	engine.BaseStep
	Value interface{}
}

// NewConstantStep builds a ConstantStep. dependents is normally supplied by
// a planfile.Registry factory from the steps that declared it as a
// dependency.
func NewConstantStep(id engine.StepID, dependents []engine.StepID, value interface{}) *ConstantStep {
	return &ConstantStep{BaseStep: engine.NewBaseStep(id, nil, dependents), Value: value}
}

func (s *ConstantStep) IsSyncAndSafe() bool { return true }

func (s *ConstantStep) Execute(ctx context.Context, deps []engine.Column, extra engine.Extra) (engine.Column, error) {
	return engine.ConstantColumn(len(deps[0]), s.Value), nil
}
