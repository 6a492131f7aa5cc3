package planfile

import (
	"github.com/hashicorp/go-multierror"

	"github.com/bucketrun/bucketrun/common/gerror"
	"github.com/bucketrun/bucketrun/engine"
)

// StepFactory builds a concrete engine.Step from its definition. dependents
// is precomputed by Compile from every other step's declared dependencies,
// so a factory never has to derive its own reverse edges.
type StepFactory func(def StepDef, dependents []engine.StepID) (engine.Step, error)

// Registry maps a StepDef's Kind to the factory that builds it.
type Registry map[string]StepFactory

// Compile resolves a Document's steps against registry and returns a
// validated, ready-to-run LayerPlan. Every step definition is attempted
// even after one fails, so a plan author sees every mistake in a document
// in one pass rather than fixing and recompiling one error at a time.
func Compile(doc *Document, registry Registry) (*engine.LayerPlan, error) {
	dependents := make(map[engine.StepID][]engine.StepID, len(doc.Steps))
	for _, def := range doc.Steps {
		for _, depID := range def.Dependencies {
			dependents[depID] = append(dependents[depID], def.ID)
		}
	}

	var buildErrs *multierror.Error
	steps := make([]engine.Step, 0, len(doc.Steps))
	for _, def := range doc.Steps {
		factory, ok := registry[def.Kind]
		if !ok {
			buildErrs = multierror.Append(buildErrs,
				gerror.NewErrValidationFailed("unknown step kind").EDetail("kind", def.Kind).EDetail("step", def.ID.String()))
			continue
		}
		step, err := factory(def, dependents[def.ID])
		if err != nil {
			buildErrs = multierror.Append(buildErrs,
				gerror.NewErrValidationFailed("error building step from plan file").
					EDetail("kind", def.Kind).EDetail("step", def.ID.String()).Wrap(err))
			continue
		}
		steps = append(steps, step)
	}
	if err := buildErrs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return engine.NewLayerPlan(steps)
}
