package engine

import (
	"context"

	"github.com/bucketrun/bucketrun/common/gerror"
)

// ChildPlanReason tags why a LayerPlan declares a nested LayerPlan to be
// handed off to once its own steps have all completed. It is the reason
// taxonomy the child-layer hand-off phase switches on, distinct from
// HandoffReason (which tags a single cell's per-row ChildHandoff).
type ChildPlanReason string

const (
	// ChildPlanReasonRoot marks a programming error: a root layer plan must
	// never be declared as another plan's child.
	ChildPlanReasonRoot ChildPlanReason = "root"
	// ChildPlanReasonListItem expands one sub-bucket per element across the
	// relevant column. Expansion itself is out of core scope; the executor
	// only reaches the hand-off point and dispatches it.
	ChildPlanReasonListItem ChildPlanReason = "listItem"
	// ChildPlanReasonMutationField must run strictly sequentially relative
	// to sibling mutation children, preserving declared order. Enforcing
	// that order is the caller's responsibility; Children is already
	// declared in that order and the hand-off phase walks it in sequence.
	ChildPlanReasonMutationField ChildPlanReason = "mutationField"
	// ChildPlanReasonPolymorphic partitions rows by concrete type and
	// dispatches per-partition sub-buckets. Out of core scope.
	ChildPlanReasonPolymorphic ChildPlanReason = "polymorphic"
	// ChildPlanReasonSubroutine is handled elsewhere in a full runtime; the
	// bucket executor skips it.
	ChildPlanReasonSubroutine ChildPlanReason = "subroutine"
	// ChildPlanReasonSubscription is handled elsewhere in a full runtime;
	// the bucket executor skips it.
	ChildPlanReasonSubscription ChildPlanReason = "subscription"
	// ChildPlanReasonDefer is handled elsewhere in a full runtime; the
	// bucket executor skips it.
	ChildPlanReasonDefer ChildPlanReason = "defer"
	// ChildPlanReasonStream is handled elsewhere in a full runtime; the
	// bucket executor skips it.
	ChildPlanReasonStream ChildPlanReason = "stream"
)

// ChildPlan pairs a nested LayerPlan with the reason it was declared as a
// child, so the hand-off phase at the end of ExecuteBucket knows what to do
// with it.
type ChildPlan struct {
	Plan   *LayerPlan
	Reason ChildPlanReason
}

// ChildDispatcher expands a child plan whose reason requires per-row
// sub-bucket dispatch (listItem, mutationField, polymorphic). The core
// ships only NoopChildDispatcher, which records that the hand-off happened
// without expanding it: the exact sub-bucket seeding rules and mutation
// serialization are a planner concern this package does not pin down.
type ChildDispatcher interface {
	Dispatch(ctx context.Context, parent *Bucket, child ChildPlan, opts ExecutionOptions) error
}

// NoopChildDispatcher is the default ChildDispatcher: it emits the
// diagnostic events around a dispatchable child hand-off and returns,
// without running the child plan. A deployment that implements listItem,
// mutationField, or polymorphic expansion supplies its own ChildDispatcher
// via ExecutionOptions.
type NoopChildDispatcher struct{}

func (NoopChildDispatcher) Dispatch(_ context.Context, _ *Bucket, child ChildPlan, opts ExecutionOptions) error {
	opts.emitter().Emit(Event{Kind: "child_handoff_start", Detail: string(child.Reason)})
	opts.emitter().Emit(Event{Kind: "child_handoff_done", Detail: string(child.Reason)})
	return nil
}

// runChildHandoff runs exactly once, after every step in plan has
// completed, walking plan's declared children in order and acting by
// reason. It is fatal (and returns a planner-violation error) for a root
// plan to appear as a child, or for a reason outside the known taxonomy.
func runChildHandoff(ctx context.Context, plan *LayerPlan, bucket *Bucket, opts ExecutionOptions) error {
	for _, child := range plan.children {
		switch child.Reason {
		case ChildPlanReasonRoot:
			return gerror.NewErrPlannerViolation("a root layer plan must not be declared as a child hand-off")
		case ChildPlanReasonListItem, ChildPlanReasonMutationField, ChildPlanReasonPolymorphic:
			if err := opts.childDispatcher().Dispatch(ctx, bucket, child, opts); err != nil {
				return err
			}
		case ChildPlanReasonSubroutine, ChildPlanReasonSubscription, ChildPlanReasonDefer, ChildPlanReasonStream:
			// Handled elsewhere in a full runtime; nothing for the bucket
			// executor to do.
		default:
			return gerror.NewErrPlannerViolation("unknown child hand-off reason").
				EDetail("reason", string(child.Reason))
		}
	}
	return nil
}
