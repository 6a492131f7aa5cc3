package engine

import "strconv"

// StepID is a dense integer identifying a step within a single LayerPlan.
// IDs are only unique within their own plan; a child plan is free to reuse
// the numbering of its parent.
type StepID int

func (id StepID) String() string {
	return strconv.Itoa(int(id))
}
