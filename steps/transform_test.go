package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/engine"
)

func TestTransformStepAppliesFnPerRow(t *testing.T) {
	step := NewTransformStep(2, 1, nil, func(in interface{}) interface{} {
		return strings.ToUpper(in.(string))
	})

	out, err := step.Execute(context.Background(), []engine.Column{{"a", "b"}}, engine.Extra{})
	require.NoError(t, err)
	require.Equal(t, engine.Column{"A", "B"}, out)
}

func TestTransformStepLeavesErroredRowsUntouched(t *testing.T) {
	ev := engine.NewRowError(1, errBoom)
	step := NewTransformStep(2, 1, nil, func(in interface{}) interface{} {
		if engine.IsError(in) {
			t.Fatal("fn must not be called on an already-errored row")
		}
		return in
	})

	out, err := step.Execute(context.Background(), []engine.Column{{ev, "clean"}}, engine.Extra{})
	require.NoError(t, err)
	require.Same(t, ev, out[0])
}

var errBoom = &testErr{"boom"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
