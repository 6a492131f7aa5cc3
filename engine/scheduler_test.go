package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteBucketRunsDiamondDependency(t *testing.T) {
	// source -> double, source -> triple, (double, triple) -> sum
	source := constStep(1, []StepID{2, 3}, 2, 10)
	double := newFuncStep(2, []StepID{1}, []StepID{4}, true, func(_ context.Context, deps []Column, _ Extra) (Column, error) {
		out := make(Column, len(deps[0]))
		for i, c := range deps[0] {
			out[i] = c.(int) * 2
		}
		return out, nil
	})
	triple := newFuncStep(3, []StepID{1}, []StepID{4}, true, func(_ context.Context, deps []Column, _ Extra) (Column, error) {
		out := make(Column, len(deps[0]))
		for i, c := range deps[0] {
			out[i] = c.(int) * 3
		}
		return out, nil
	})
	sum := newFuncStep(4, []StepID{2, 3}, nil, true, func(_ context.Context, deps []Column, _ Extra) (Column, error) {
		out := make(Column, len(deps[0]))
		for i := range out {
			out[i] = deps[0][i].(int) + deps[1][i].(int)
		}
		return out, nil
	})

	plan, err := NewLayerPlan([]Step{source, double, triple, sum})
	require.NoError(t, err)

	bucket := NewBucket(2)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.NoError(t, err)

	col, ok := bucket.Column(4)
	require.True(t, ok)
	require.Equal(t, Column{50, 50}, col)
	require.False(t, bucket.HasErrors())
}

func TestExecuteBucketPropagatesErrorsThroughDownstreamSteps(t *testing.T) {
	source := newFuncStep(1, nil, []StepID{2}, true, func(_ context.Context, _ []Column, _ Extra) (Column, error) {
		return nil, errInjected
	})
	downstream := newFuncStep(2, []StepID{1}, nil, true, func(_ context.Context, deps []Column, _ Extra) (Column, error) {
		// Never inspects deps[0] for errors itself; relies on the framework.
		return ConstantColumn(len(deps[0]), "should be masked"), nil
	})

	plan, err := NewLayerPlan([]Step{source, downstream})
	require.NoError(t, err)

	bucket := NewBucket(2)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.NoError(t, err)
	require.True(t, bucket.HasErrors())

	col, _ := bucket.Column(2)
	for _, cell := range col {
		require.True(t, IsError(cell))
	}
}

var errInjected = testError("injected failure")

type testError string

func (e testError) Error() string { return string(e) }
