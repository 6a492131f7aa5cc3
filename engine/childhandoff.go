package engine

import (
	"context"

	"github.com/bucketrun/bucketrun/common/gerror"
)

// HandoffReason records why a step is delegating to a nested LayerPlan,
// purely for diagnostics: it travels through to the Event emitted around
// the child run.
type HandoffReason string

const (
	// HandoffReasonExpand is used when a single row's value needs further
	// resolution by running a whole nested plan over it, the way a list
	// field's elements each need their selection set resolved.
	HandoffReasonExpand HandoffReason = "expand"
	// HandoffReasonRetry is used when a step reruns a sub-plan against a
	// narrowed seed, such as retrying only the rows that previously failed.
	HandoffReasonRetry HandoffReason = "retry"
)

// ChildHandoff is a Cell a step can place in its output column to delegate
// a row's result to a nested LayerPlan instead of computing it directly.
// The scheduler treats it like any other Awaitable: resolving it runs the
// child plan over its own bucket and substitutes the result back into the
// parent column positionally.
type ChildHandoff struct {
	plan       *LayerPlan
	outputStep StepID
	size       int
	opts       ExecutionOptions
	reason     HandoffReason
}

// NewChildHandoff builds a handoff cell that, when awaited, runs plan over
// a fresh bucket of the given size and returns the value (or column, for
// size > 1) committed for outputStep. opts is normally the same
// ExecutionOptions the delegating step itself was invoked with, so the
// child run shares the same Meta and EventEmitter.
func NewChildHandoff(plan *LayerPlan, outputStep StepID, size int, opts ExecutionOptions, reason HandoffReason) *ChildHandoff {
	return &ChildHandoff{plan: plan, outputStep: outputStep, size: size, opts: opts, reason: reason}
}

func (c *ChildHandoff) Await(ctx context.Context) (interface{}, error) {
	if c.plan.root {
		return nil, gerror.NewErrPlannerViolation("a root layer plan cannot be used as a child hand-off").
			EDetail("outputStep", c.outputStep.String())
	}

	c.opts.emitter().Emit(Event{Kind: "child_handoff_start", StepID: c.outputStep, Detail: string(c.reason)})

	bucket := NewBucket(c.size)
	if err := ExecuteBucket(ctx, c.plan, bucket, c.opts); err != nil {
		return nil, err
	}

	col, ok := bucket.Column(c.outputStep)
	if !ok {
		return nil, gerror.NewErrPlannerViolation("child layer plan did not produce its designated output step").
			EDetail("outputStep", c.outputStep.String())
	}

	c.opts.emitter().Emit(Event{Kind: "child_handoff_done", StepID: c.outputStep, Detail: string(c.reason)})

	if c.size == 1 {
		return col[0], nil
	}
	return col, nil
}
