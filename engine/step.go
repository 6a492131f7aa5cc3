package engine

import "context"

// Event is a diagnostic notification threaded through Extra.EventEmitter.
// The core only ever emits a handful of lifecycle events; steps are free to
// emit their own via the same handle.
type Event struct {
	Kind   string
	StepID StepID
	Detail string
}

// EventEmitter is the diagnostic handle passed to every step invocation.
// It is declared here, not in the diagnostics package, so the core stays
// free of any concrete dependency; diagnostics.Emitter implements it.
type EventEmitter interface {
	Emit(Event)
}

// Extra is the side-channel every step receives alongside its dependency
// columns: Meta, which is ExecutionOptions.Meta passed through unchanged
// (every step of a run receives the same value; there is no separate
// scratchpad per step), and a handle for diagnostic events.
type Extra struct {
	Meta         interface{}
	EventEmitter EventEmitter
}

// Step is a single unit of computation producing one column from its
// dependency columns, invoked once per bucket.
type Step interface {
	// ID returns this step's identifier within its LayerPlan.
	ID() StepID
	// Dependencies returns, in declared order, the steps whose columns this
	// step is given as input. Position is significant.
	Dependencies() []StepID
	// DependentSteps returns the reverse edges: steps that depend on this
	// one. It must be exactly the reverse of Dependencies, precomputed by
	// the planner.
	DependentSteps() []StepID
	// IsSyncAndSafe, when true, promises that Execute returns synchronously,
	// returns only plain values (no Awaitable cells), and introduces no
	// ErrorValue not already present in its inputs. Violating the promise
	// is a programming error.
	IsSyncAndSafe() bool
	// Execute computes this step's output column from its dependency
	// columns (or a single NoDepsColumn when Dependencies is empty). A
	// non-nil error models a step that failed catastrophically — raised
	// synchronously or, for a step run on its own goroutine, failed as a
	// whole rather than row by row.
	Execute(ctx context.Context, deps []Column, extra Extra) (Column, error)
}

// BaseStep provides the bookkeeping (id, dependency lists) shared by every
// concrete Step, leaving Execute and IsSyncAndSafe to the embedder.
type BaseStep struct {
	id           StepID
	dependencies []StepID
	dependents   []StepID
}

// NewBaseStep constructs the shared bookkeeping for a step. dependents is
// supplied by the planner, not derived, matching spec's precomputed
// reverse-edge invariant.
func NewBaseStep(id StepID, dependencies, dependents []StepID) BaseStep {
	return BaseStep{id: id, dependencies: dependencies, dependents: dependents}
}

func (b BaseStep) ID() StepID                 { return b.id }
func (b BaseStep) Dependencies() []StepID     { return b.dependencies }
func (b BaseStep) DependentSteps() []StepID   { return b.dependents }
