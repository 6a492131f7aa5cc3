package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/common/gerror"
)

func childPlanThatDoubles(t *testing.T) *LayerPlan {
	seed := newFuncStep(1, nil, []StepID{2}, true, func(_ context.Context, _ []Column, extra Extra) (Column, error) {
		n := extra.Meta.(int)
		return Column{n}, nil
	})
	doubled := newFuncStep(2, []StepID{1}, nil, true, func(_ context.Context, deps []Column, _ Extra) (Column, error) {
		return Column{deps[0][0].(int) * 2}, nil
	})
	plan, err := NewChildLayerPlan([]Step{seed, doubled})
	require.NoError(t, err)
	return plan
}

func TestChildHandoffResolvesSingleRow(t *testing.T) {
	plan := childPlanThatDoubles(t)
	opts := ExecutionOptions{Meta: 21}
	handoff := NewChildHandoff(plan, StepID(2), 1, opts, HandoffReasonExpand)

	val, err := handoff.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, val)
}

func TestChildHandoffRejectsRootPlan(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)

	handoff := NewChildHandoff(plan, StepID(1), 1, ExecutionOptions{}, HandoffReasonExpand)
	_, err = handoff.Await(context.Background())
	require.Error(t, err)
	require.True(t, gerror.IsPlannerViolation(err))
}

func TestReduceColumnResolvesChildHandoffAsAwaitable(t *testing.T) {
	plan := childPlanThatDoubles(t)
	bucket := NewBucket(1)
	step := newFuncStep(1, nil, nil, false, func(_ context.Context, _ []Column, extra Extra) (Column, error) {
		return Column{NewChildHandoff(plan, StepID(2), 1, ExecutionOptions{Meta: 5}, HandoffReasonExpand)}, nil
	})

	err := invokeStep(context.Background(), step, bucket, ExecutionOptions{})
	require.NoError(t, err)

	col, _ := bucket.Column(1)
	require.Equal(t, 10, col[0])
}
