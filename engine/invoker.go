package engine

import (
	"context"
	"fmt"

	"github.com/bucketrun/bucketrun/common/gerror"
)

// safeguard calls step.Execute and converts a synchronous panic into an
// error, so a bug in one step never takes down the scheduler goroutine.
// This is the Go analogue of a try/catch wrapped around a synchronous
// raise: the panic is the one case a step cannot express as a plain error
// return, so it is the one case the executor recovers from directly.
func safeguard(ctx context.Context, step Step, deps []Column, extra Extra) (col Column, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return step.Execute(ctx, deps, extra)
}

// firstErrorPerRow scans deps column-by-column, row-by-row, keeping the
// first ErrorValue seen at each row index. Declared dependency order
// decides which error wins when more than one dependency is errored at the
// same row.
func firstErrorPerRow(deps []Column, size int) map[int]*ErrorValue {
	errs := make(map[int]*ErrorValue)
	for _, dep := range deps {
		for row, cell := range dep {
			if row >= size {
				continue
			}
			if _, already := errs[row]; already {
				continue
			}
			if ev, ok := AsErrorValue(cell); ok {
				errs[row] = ev
			}
		}
	}
	return errs
}

// filterDeps drops, from every dependency column, the rows whose index is
// in errs, preserving relative order. Only rows with no upstream error are
// handed to the step at all.
func filterDeps(deps []Column, errs map[int]*ErrorValue, size int) []Column {
	filtered := make([]Column, len(deps))
	for i, dep := range deps {
		out := make(Column, 0, size-len(errs))
		for row, cell := range dep {
			if _, errored := errs[row]; errored {
				continue
			}
			out = append(out, cell)
		}
		filtered[i] = out
	}
	return filtered
}

// mergeRows reconstructs the full-size output column: errs fill their
// original row positions and reduced supplies the remaining rows in order.
// reduced may be nil when every row errored and the step was never invoked.
func mergeRows(errs map[int]*ErrorValue, reduced Column, size int) Column {
	out := make(Column, size)
	next := 0
	for row := 0; row < size; row++ {
		if ev, errored := errs[row]; errored {
			out[row] = ev
			continue
		}
		out[row] = reduced[next]
		next++
	}
	return out
}

// invokeErrorAware runs step.Execute, applying the error-aware invoker
// (first-error-wins filter, invoke on the reduced batch, positional
// merge-back) whenever the bucket already has at least one error somewhere.
// errs is nil when the bucket has no errors yet, in which case the step is
// invoked directly on the full, unfiltered deps.
func invokeErrorAware(ctx context.Context, step Step, size int, deps []Column, errs map[int]*ErrorValue, extra Extra) (Column, error) {
	if errs == nil || len(errs) == 0 {
		return safeguard(ctx, step, deps, extra)
	}
	if len(errs) == size {
		// All rows errored in input: the step is not invoked at all, and
		// its output is defined to be the same upstream errors.
		return mergeRows(errs, nil, size), nil
	}

	reduced, err := safeguard(ctx, step, filterDeps(deps, errs, size), extra)
	if err != nil {
		return nil, err
	}
	want := size - len(errs)
	if len(reduced) != want {
		return nil, gerror.NewErrShapeViolation("error-aware invoker: step did not fully consume its filtered input").
			EDetail("step", step.ID().String()).
			EDetail("want", want).
			EDetail("got", len(reduced))
	}
	return mergeRows(errs, reduced, size), nil
}

// invokeStep runs a single step against the bucket's current columns and
// commits its output. A catastrophic failure (an error or panic from
// Execute) or a column of the wrong length is not returned: it is committed
// as a whole-column ErrorValue, so every current path returns nil.
func invokeStep(ctx context.Context, step Step, bucket *Bucket, opts ExecutionOptions) error {
	deps := bucket.Columns(step.Dependencies())
	if len(step.Dependencies()) == 0 {
		deps = []Column{NoDepsColumn(bucket.Size())}
	}

	opts.emitter().Emit(Event{Kind: "step_started", StepID: step.ID()})

	sctx, cancel := stepContext(ctx, opts)
	defer cancel()

	// The error-aware invoker only runs once some step in the bucket has
	// already failed; with clean inputs this is skipped outright rather
	// than scanning every dependency column for nothing.
	var errs map[int]*ErrorValue
	if bucket.HasErrors() {
		errs = firstErrorPerRow(deps, bucket.Size())
	}

	out, err := invokeErrorAware(sctx, step, bucket.Size(), deps, errs, opts.extra())
	if err != nil {
		opts.emitter().Emit(Event{Kind: "step_failed", StepID: step.ID(), Detail: err.Error()})
		bucket.commit(step.ID(), broadcastErrorColumn(bucket.Size(), err, step.ID()), true)
		return nil
	}

	if len(out) != bucket.Size() {
		shapeErr := gerror.NewErrShapeViolation("step returned a column of the wrong length").
			EDetail("step", step.ID().String()).
			EDetail("want", bucket.Size()).
			EDetail("got", len(out))
		bucket.commit(step.ID(), broadcastErrorColumn(bucket.Size(), shapeErr, step.ID()), true)
		return nil
	}

	if step.IsSyncAndSafe() {
		err := commitSyncAndSafe(step, bucket, out, errs)
		opts.emitter().Emit(Event{Kind: "step_done", StepID: step.ID()})
		return err
	}
	err = commitReduced(sctx, step, bucket, out, len(errs) > 0)
	opts.emitter().Emit(Event{Kind: "step_done", StepID: step.ID()})
	return err
}

// commitSyncAndSafe takes the fast path: it trusts the step's promise that
// out contains no Awaitable cells and introduces no error not already
// present upstream, but verifies both cheaply before trusting the result.
func commitSyncAndSafe(step Step, bucket *Bucket, out Column, errs map[int]*ErrorValue) error {
	if containsAwaitable(out) {
		violation := gerror.NewErrSyncSafeViolation("step declared IsSyncAndSafe but returned an unresolved cell").
			EDetail("step", step.ID().String())
		bucket.commit(step.ID(), broadcastErrorColumn(bucket.Size(), violation, step.ID()), true)
		return nil
	}
	if introducesNewError(out, errs) {
		violation := gerror.NewErrSyncSafeViolation("step declared IsSyncAndSafe but introduced a new error").
			EDetail("step", step.ID().String())
		bucket.commit(step.ID(), broadcastErrorColumn(bucket.Size(), violation, step.ID()), true)
		return nil
	}
	bucket.commit(step.ID(), out, len(errs) > 0 || columnHasAnyError(out))
	return nil
}

// introducesNewError reports whether out contains an ErrorValue at a row
// that was not already errored on the way in. Rows that were already
// errored are expected to still be errored after merge-back; anywhere else
// an ErrorValue is a step manufacturing a failure it never promised.
func introducesNewError(out Column, errs map[int]*ErrorValue) bool {
	for row, cell := range out {
		if _, expected := errs[row]; expected {
			continue
		}
		if IsError(cell) {
			return true
		}
	}
	return false
}

// commitReduced takes the general path: it awaits any Awaitable cells
// positionally before committing the column.
func commitReduced(ctx context.Context, step Step, bucket *Bucket, out Column, depsHaveError bool) error {
	resolved, hadNewError := reduceColumn(ctx, step.ID(), out)
	bucket.commit(step.ID(), resolved, depsHaveError || hadNewError)
	return nil
}
