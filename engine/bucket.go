package engine

import "sync"

// Bucket is the columnar working set for one execution of a LayerPlan: one
// Column per completed step, all of the same length (the bucket's size),
// plus a monotonic flag recording whether any row anywhere has failed.
//
// The scheduler runs independent steps concurrently, each on its own
// goroutine, so every access to the bucket's mutable state goes through mu
// rather than relying on a single commit-only goroutine.
type Bucket struct {
	size    int
	mu      sync.RWMutex
	columns map[StepID]Column
	// hasErrors is true once any column produced so far contains at least
	// one ErrorValue. It only ever flips false->true over a bucket's
	// lifetime, never back.
	hasErrors bool
	// isComplete is set once by ExecuteBucket after every step has
	// published its column and the plan's declared child hand-off has run.
	isComplete bool
}

// NewBucket returns an empty bucket of the given size, ready to have step
// columns filled in as the scheduler runs.
func NewBucket(size int) *Bucket {
	return &Bucket{size: size, columns: make(map[StepID]Column)}
}

func (b *Bucket) Size() int {
	return b.size
}

// HasErrors reports whether any column committed to this bucket so far
// contains an ErrorValue. The scheduler consults this to choose between the
// fast path and the error-aware invoker for each step about to run.
func (b *Bucket) HasErrors() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasErrors
}

// IsComplete reports whether ExecuteBucket has finished this bucket: every
// step has a published column and any declared child hand-off has run.
func (b *Bucket) IsComplete() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isComplete
}

// markComplete is called exactly once, by ExecuteBucket, after child
// hand-off settles.
func (b *Bucket) markComplete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.isComplete = true
}

// Column returns the materialized column for a completed step, or false if
// it has not been committed yet.
func (b *Bucket) Column(id StepID) (Column, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.columns[id]
	return col, ok
}

// Columns returns the dependency columns for the given step IDs, in order.
// Every id must already be committed; the caller (the scheduler) only asks
// for dependencies of a step whose dependencies have all completed.
func (b *Bucket) Columns(ids []StepID) []Column {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cols := make([]Column, len(ids))
	for i, id := range ids {
		cols[i] = b.columns[id]
	}
	return cols
}

// commit records a completed step's column and updates hasErrors. Setting
// hasErrors is monotonic: once true, it is never reset to false, even if
// this column happens to contain no errors itself.
func (b *Bucket) commit(id StepID, col Column, columnHasError bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.columns[id] = col
	if columnHasError {
		b.hasErrors = true
	}
}

// columnHasAnyError scans a fully-resolved column (no Awaitable cells left)
// for an ErrorValue.
func columnHasAnyError(col Column) bool {
	for _, cell := range col {
		if IsError(cell) {
			return true
		}
	}
	return false
}
