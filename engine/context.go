package engine

import (
	"context"
	"time"
)

// ExecutionOptions configures a single run of a LayerPlan over a bucket.
type ExecutionOptions struct {
	// Meta is handed to every step's Extra.Meta unchanged; it is the
	// request-scoped value a deployment uses to thread through things like
	// a caller's identity or a cache handle.
	Meta interface{}
	// EventEmitter receives lifecycle events for the run. A nil emitter is
	// replaced with a no-op one.
	EventEmitter EventEmitter
	// StepTimeout sets a deadline on the context passed to each step's
	// Execute call and used to await its Awaitable cells. An error Execute
	// returns because of it is handled as a catastrophic failure; the
	// scheduler does not interrupt a step that ignores its context. Zero
	// means no per-step timeout.
	StepTimeout time.Duration
	// ChildDispatcher expands listItem, mutationField, and polymorphic
	// child plans once a bucket's own steps have all completed. A nil
	// dispatcher is replaced with NoopChildDispatcher.
	ChildDispatcher ChildDispatcher
}

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

func (o ExecutionOptions) emitter() EventEmitter {
	if o.EventEmitter == nil {
		return noopEmitter{}
	}
	return o.EventEmitter
}

func (o ExecutionOptions) extra() Extra {
	return Extra{Meta: o.Meta, EventEmitter: o.emitter()}
}

func (o ExecutionOptions) childDispatcher() ChildDispatcher {
	if o.ChildDispatcher == nil {
		return NoopChildDispatcher{}
	}
	return o.ChildDispatcher
}

// stepContext derives the context passed to a single step's Execute call,
// applying the configured per-step timeout if any.
func stepContext(ctx context.Context, o ExecutionOptions) (context.Context, context.CancelFunc) {
	if o.StepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.StepTimeout)
}
