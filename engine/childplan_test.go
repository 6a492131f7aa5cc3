package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/common/gerror"
)

func TestExecuteBucketMarksCompleteAfterChildHandoffSettles(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)

	sub, err := NewChildLayerPlan([]Step{constStep(1, nil, 1, "child")})
	require.NoError(t, err)
	plan.WithChildren(ChildPlan{Plan: sub, Reason: ChildPlanReasonListItem})

	bucket := NewBucket(1)
	require.False(t, bucket.IsComplete())

	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.NoError(t, err)
	require.True(t, bucket.IsComplete())
}

func TestExecuteBucketCompletesZeroSizeBucket(t *testing.T) {
	plan, err := NewLayerPlan(nil)
	require.NoError(t, err)

	bucket := NewBucket(0)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.NoError(t, err)
	require.True(t, bucket.IsComplete())
	require.False(t, bucket.HasErrors())
}

func TestExecuteBucketSkipsDeferredChildReasonsWithoutDispatch(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)

	sub, err := NewChildLayerPlan([]Step{constStep(1, nil, 1, "child")})
	require.NoError(t, err)
	plan.WithChildren(ChildPlan{Plan: sub, Reason: ChildPlanReasonStream})

	dispatcher := &recordingDispatcher{}
	bucket := NewBucket(1)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{ChildDispatcher: dispatcher})
	require.NoError(t, err)
	require.True(t, bucket.IsComplete())
	require.Empty(t, dispatcher.reasons)
}

func TestExecuteBucketFailsFatallyOnRootChildReason(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)
	plan.WithChildren(ChildPlan{Plan: plan, Reason: ChildPlanReasonRoot})

	bucket := NewBucket(1)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.Error(t, err)
	require.True(t, gerror.IsPlannerViolation(err))
	require.False(t, bucket.IsComplete())
}

func TestExecuteBucketFailsFatallyOnUnknownChildReason(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)

	sub, err := NewChildLayerPlan([]Step{constStep(1, nil, 1, "child")})
	require.NoError(t, err)
	plan.WithChildren(ChildPlan{Plan: sub, Reason: ChildPlanReason("bogus")})

	bucket := NewBucket(1)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{})
	require.Error(t, err)
	require.True(t, gerror.IsPlannerViolation(err))
}

func TestExecuteBucketDispatchesListItemChildrenToTheConfiguredDispatcher(t *testing.T) {
	root := constStep(1, nil, 1, "v")
	plan, err := NewLayerPlan([]Step{root})
	require.NoError(t, err)

	sub, err := NewChildLayerPlan([]Step{constStep(1, nil, 1, "child")})
	require.NoError(t, err)
	plan.WithChildren(ChildPlan{Plan: sub, Reason: ChildPlanReasonListItem})

	dispatcher := &recordingDispatcher{}
	bucket := NewBucket(1)
	err = ExecuteBucket(context.Background(), plan, bucket, ExecutionOptions{ChildDispatcher: dispatcher})
	require.NoError(t, err)
	require.Equal(t, []ChildPlanReason{ChildPlanReasonListItem}, dispatcher.reasons)
}

type recordingDispatcher struct {
	reasons []ChildPlanReason
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ *Bucket, child ChildPlan, _ ExecutionOptions) error {
	d.reasons = append(d.reasons, child.Reason)
	return nil
}
