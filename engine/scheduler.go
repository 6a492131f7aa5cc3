package engine

import (
	"context"

	"github.com/bucketrun/bucketrun/common/gerror"
)

// ExecuteBucket runs every step in plan exactly once against bucket,
// dispatching each step as soon as its dependencies have all committed.
// Independent steps run concurrently, each on its own goroutine; a single
// channel feeds completions back to this function, which is the only
// place that decides what becomes ready next. That keeps the scheduling
// decision itself single-threaded and easy to reason about even though
// the step invocations it drives are not.
func ExecuteBucket(ctx context.Context, plan *LayerPlan, bucket *Bucket, opts ExecutionOptions) error {
	remaining := make(map[StepID]int, plan.Len())
	for id, step := range plan.steps {
		remaining[id] = len(step.Dependencies())
	}

	ready := make([]StepID, 0, plan.Len())
	for id, n := range remaining {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sortStepIDs(ready)

	done := make(chan StepID)
	completed := 0
	total := plan.Len()

	dispatch := func(id StepID) {
		step := plan.steps[id]
		go func() {
			select {
			case <-ctx.Done():
			default:
				_ = invokeStep(ctx, step, bucket, opts)
			}
			select {
			case done <- id:
			case <-ctx.Done():
			}
		}()
	}

	for _, id := range ready {
		dispatch(id)
	}

	for completed < total {
		select {
		case <-ctx.Done():
			return gerror.NewErrTimeout("bucket execution cancelled before all steps completed").
				EDetail("completed", completed).EDetail("total", total)
		case id := <-done:
			completed++
			step := plan.steps[id]
			for _, depID := range step.DependentSteps() {
				remaining[depID]--
				if remaining[depID] == 0 {
					dispatch(depID)
				}
			}
		}
	}

	// pending is now empty and every future has settled: run the
	// declared child hand-off exactly once before marking the bucket done.
	if err := runChildHandoff(ctx, plan, bucket, opts); err != nil {
		return err
	}
	bucket.markComplete()

	return nil
}
