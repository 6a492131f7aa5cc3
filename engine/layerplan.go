package engine

import "github.com/bucketrun/bucketrun/common/gerror"

// LayerPlan is a validated, static DAG of steps. It is built once (normally
// by the planfile compiler) and then executed repeatedly, once per bucket.
type LayerPlan struct {
	steps map[StepID]Step
	// order is a topological ordering of steps, computed once at
	// validation time so the scheduler never has to recompute it per run.
	order []StepID
	// root is true for a plan built with NewLayerPlan. A plan built with
	// NewChildLayerPlan is not root. ChildHandoff refuses a root plan;
	// ExecuteBucket itself does not check this flag.
	root bool
	// children are nested LayerPlans this plan hands off to, in declared
	// order, once its own steps have all completed. See runChildHandoff.
	children []ChildPlan
}

// NewLayerPlan validates steps and returns a root LayerPlan ready to be
// passed to ExecuteBucket. Validation checks that every declared dependency
// and dependent edge resolves to a known step, that dependent edges are
// exactly the reverse of dependency edges, and that the graph is acyclic.
func NewLayerPlan(steps []Step) (*LayerPlan, error) {
	return newLayerPlan(steps, true)
}

// NewChildLayerPlan validates steps and returns a non-root LayerPlan, for
// use through a ChildHandoff or as a ChildPlan declared via WithChildren.
func NewChildLayerPlan(steps []Step) (*LayerPlan, error) {
	return newLayerPlan(steps, false)
}

func newLayerPlan(steps []Step, root bool) (*LayerPlan, error) {
	byID := make(map[StepID]Step, len(steps))
	for _, s := range steps {
		if _, dup := byID[s.ID()]; dup {
			return nil, gerror.NewErrPlannerViolation("duplicate step id").EDetail("step", s.ID().String())
		}
		byID[s.ID()] = s
	}

	for _, s := range steps {
		for _, depID := range s.Dependencies() {
			dep, ok := byID[depID]
			if !ok {
				return nil, gerror.NewErrPlannerViolation("unknown dependency").
					EDetail("step", s.ID().String()).EDetail("dependency", depID.String())
			}
			if !containsStepID(dep.DependentSteps(), s.ID()) {
				return nil, gerror.NewErrPlannerViolation("dependent edges are not the reverse of dependency edges").
					EDetail("step", s.ID().String()).EDetail("dependency", depID.String())
			}
		}
		for _, depID := range s.DependentSteps() {
			if _, ok := byID[depID]; !ok {
				return nil, gerror.NewErrPlannerViolation("unknown dependent").
					EDetail("step", s.ID().String()).EDetail("dependent", depID.String())
			}
		}
	}

	order, err := topologicalSort(byID)
	if err != nil {
		return nil, err
	}

	return &LayerPlan{steps: byID, order: order, root: root}, nil
}

func (p *LayerPlan) Step(id StepID) (Step, bool) {
	s, ok := p.steps[id]
	return s, ok
}

// WithChildren declares the child plans this plan hands off to, in order,
// once its own steps have all completed. It returns p so it can be chained
// onto NewLayerPlan/NewChildLayerPlan at construction time.
func (p *LayerPlan) WithChildren(children ...ChildPlan) *LayerPlan {
	p.children = children
	return p
}

// Children returns the child plans declared via WithChildren, in order.
func (p *LayerPlan) Children() []ChildPlan {
	out := make([]ChildPlan, len(p.children))
	copy(out, p.children)
	return out
}

// Order returns the plan's steps in an order where every step follows all
// of its dependencies.
func (p *LayerPlan) Order() []StepID {
	out := make([]StepID, len(p.order))
	copy(out, p.order)
	return out
}

func (p *LayerPlan) Len() int {
	return len(p.steps)
}

func containsStepID(haystack []StepID, needle StepID) bool {
	for _, id := range haystack {
		if id == needle {
			return true
		}
	}
	return false
}

// topologicalSort runs a recursive depth-first search, reporting a
// planner-violation error if it finds a cycle. This is a purely defensive
// check: well-behaved planners never hand the executor a cyclic plan, so a
// simple DFS is preferable to pulling in a general-purpose graph library for
// a property the planner already guarantees upstream.
func topologicalSort(byID map[StepID]Step) ([]StepID, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[StepID]int, len(byID))
	order := make([]StepID, 0, len(byID))

	var ids []StepID
	for id := range byID {
		ids = append(ids, id)
	}
	sortStepIDs(ids)

	var visit func(id StepID) error
	visit = func(id StepID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return gerror.NewErrPlannerViolation("dependency cycle detected").EDetail("step", id.String())
		}
		state[id] = visiting
		deps := byID[id].Dependencies()
		sorted := make([]StepID, len(deps))
		copy(sorted, deps)
		sortStepIDs(sorted)
		for _, dep := range sorted {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortStepIDs(ids []StepID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
