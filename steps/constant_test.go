package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/engine"
)

func TestConstantStepFillsEveryRow(t *testing.T) {
	step := NewConstantStep(1, nil, "hello")
	out, err := step.Execute(context.Background(), []engine.Column{engine.NoDepsColumn(3)}, engine.Extra{})
	require.NoError(t, err)
	require.Equal(t, engine.Column{"hello", "hello", "hello"}, out)
}

func TestConstantStepIsSyncAndSafe(t *testing.T) {
	step := NewConstantStep(1, nil, 1)
	require.True(t, step.IsSyncAndSafe())
}
