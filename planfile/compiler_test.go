package planfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/engine"
)

func testRegistry() Registry {
	return Registry{
		"constant": func(def StepDef, dependents []engine.StepID) (engine.Step, error) {
			value := def.Config["value"]
			base := engine.NewBaseStep(def.ID, def.Dependencies, dependents)
			return &compilerConstStep{BaseStep: base, value: value}, nil
		},
		"uppercase": func(def StepDef, dependents []engine.StepID) (engine.Step, error) {
			base := engine.NewBaseStep(def.ID, def.Dependencies, dependents)
			return &compilerUppercaseStep{BaseStep: base}, nil
		},
	}
}

type compilerConstStep struct {
	engine.BaseStep
	value interface{}
}

func (s *compilerConstStep) IsSyncAndSafe() bool { return true }
func (s *compilerConstStep) Execute(ctx context.Context, deps []engine.Column, extra engine.Extra) (engine.Column, error) {
	return engine.Column{s.value}, nil
}

type compilerUppercaseStep struct {
	engine.BaseStep
}

func (s *compilerUppercaseStep) IsSyncAndSafe() bool { return true }
func (s *compilerUppercaseStep) Execute(ctx context.Context, deps []engine.Column, extra engine.Extra) (engine.Column, error) {
	v, _ := deps[0][0].(string)
	return engine.Column{v + "!"}, nil
}

func TestCompileBuildsRunnableLayerPlan(t *testing.T) {
	doc := &Document{
		Version: "1",
		Steps: []StepDef{
			{ID: 1, Kind: "constant", Config: map[string]interface{}{"value": "hi"}},
			{ID: 2, Kind: "uppercase", Dependencies: []engine.StepID{1}},
		},
	}

	plan, err := Compile(doc, testRegistry())
	require.NoError(t, err)

	bucket := engine.NewBucket(1)
	err = engine.ExecuteBucket(context.Background(), plan, bucket, engine.ExecutionOptions{})
	require.NoError(t, err)

	col, ok := bucket.Column(2)
	require.True(t, ok)
	require.Equal(t, "hi!", col[0])
}

func TestCompileRejectsUnknownKind(t *testing.T) {
	doc := &Document{Steps: []StepDef{{ID: 1, Kind: "nonexistent"}}}
	_, err := Compile(doc, testRegistry())
	require.Error(t, err)
}
